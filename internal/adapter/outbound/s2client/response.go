package s2client

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/i2y/scholarmcp/internal/domain"
)

const maxMessageLen = 200

// classify turns a non-2xx response into an Error. 429 is rate_limited, 5xx
// is server_error and every other status is client_error.
func classify(endpoint string, status int, body []byte) *domain.Error {
	kind := domain.KindClientError
	switch {
	case status == http.StatusTooManyRequests:
		kind = domain.KindRateLimited
	case status >= 500:
		kind = domain.KindServerError
	}
	return &domain.Error{
		Kind:     kind,
		Endpoint: endpoint,
		Status:   status,
		Message:  apiMessage(status, body),
	}
}

// apiMessage prefers the API's own "error" or "message" field, then a
// truncated body, then the status text.
func apiMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "message"} {
			if r := gjson.GetBytes(body, field); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	if r := []rune(msg); len(r) > maxMessageLen {
		msg = string(r[:maxMessageLen]) + "..."
	}
	return msg
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
