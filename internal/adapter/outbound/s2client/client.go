// Package s2client is the single choke point for calls to the Semantic
// Scholar API. Every tool sends its requests through Client.Send, which owns
// authentication, timeouts, retries and error translation.
package s2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/telemetry"
)

const (
	DefaultBaseURL     = "https://api.semanticscholar.org"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 30 * time.Second
	DefaultJitter      = 0.1
	DefaultUserAgent   = "scholarmcp"

	// maxBodyBytes bounds how much of a response is read into memory.
	maxBodyBytes = 32 << 20
)

// Config controls the client's network behaviour. Zero values take defaults.
type Config struct {
	BaseURL     string        // empty uses the catalog's server URL
	Timeout     time.Duration // per attempt
	MaxAttempts int           // including the first attempt
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Jitter      float64 // randomization factor in [0, 1]
	UserAgent   string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Catalog describes the known API operations.
type Catalog interface {
	// CheckRequest rejects descriptors for unknown operations or with
	// undeclared query parameters.
	CheckRequest(req domain.RequestDescriptor) error

	// PathParams returns the path placeholders of ep in template order.
	PathParams(ep domain.Endpoint) []string

	// ServerURL returns the API base URL the catalog declares, or "".
	ServerURL() string
}

// Client implements usecase.APIClient. It holds only immutable configuration
// and a shared *http.Client, so concurrent Send calls are safe.
type Client struct {
	cfg        Config
	base       *url.URL
	credential domain.Credential
	catalog    Catalog
	http       *http.Client
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// New creates a Client. httpClient and metrics may be nil.
func New(cfg Config, credential domain.Credential, catalog Catalog, httpClient *http.Client, metrics *telemetry.Metrics, logger *slog.Logger) (*Client, error) {
	if catalog == nil {
		return nil, errors.New("endpoint catalog is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = catalog.ServerURL()
	}
	cfg = cfg.withDefaults()
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		return nil, fmt.Errorf("backoff jitter must be within [0, 1], got %v", cfg.Jitter)
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		return nil, fmt.Errorf("backoff max %s is below backoff base %s", cfg.BackoffMax, cfg.BackoffBase)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if metrics == nil {
		if metrics, err = telemetry.NewMetrics(noop.NewMeterProvider()); err != nil {
			return nil, err
		}
	}

	log := logger.With("component", "s2client")
	log.Info("API client configured",
		slog.String("base_url", base.String()),
		slog.Bool("authenticated", credential.Present()),
		slog.Duration("timeout", cfg.Timeout),
		slog.Int("max_attempts", cfg.MaxAttempts),
	)

	return &Client{
		cfg:        cfg,
		base:       base,
		credential: credential,
		catalog:    catalog,
		http:       httpClient,
		metrics:    metrics,
		tracer:     telemetry.Tracer(),
		logger:     log,
	}, nil
}

// Send performs req with retries and returns the response body unchanged.
// Every failure is a *domain.Error carrying the number of attempts made.
func (c *Client) Send(ctx context.Context, req domain.RequestDescriptor) (json.RawMessage, error) {
	endpoint := req.Endpoint.Name
	log := c.logger.With(slog.String("endpoint", endpoint), slog.String("call_id", uuid.NewString()))

	ctx, span := c.tracer.Start(ctx, "s2client.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("scholarmcp.endpoint", endpoint),
			semconv.HTTPRequestMethodKey.String(req.Endpoint.Method),
		),
	)
	defer span.End()
	start := time.Now()

	raw, attempts, err := c.send(ctx, log, req)

	kind := domain.KindOf(err)
	c.metrics.RecordCall(ctx, endpoint, kind, time.Since(start))
	span.SetAttributes(attribute.Int("scholarmcp.attempts", attempts))
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Status != 0 {
			span.SetAttributes(semconv.HTTPResponseStatusCode(de.Status))
		}
		span.SetAttributes(attribute.String("scholarmcp.error_kind", string(kind)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		log.Warn("API request failed", slog.Any("error", err), slog.Int("attempts", attempts))
		return nil, err
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(http.StatusOK))
	log.Debug("API request succeeded", slog.Int("attempts", attempts), slog.Int("bytes", len(raw)))
	return raw, nil
}

func (c *Client) send(ctx context.Context, log *slog.Logger, req domain.RequestDescriptor) (json.RawMessage, int, error) {
	endpoint := req.Endpoint.Name
	if err := c.catalog.CheckRequest(req); err != nil {
		return nil, 0, withEndpoint(err, endpoint)
	}
	target, err := c.buildURL(req)
	if err != nil {
		return nil, 0, withEndpoint(err, endpoint)
	}
	body, err := encodeBody(req)
	if err != nil {
		return nil, 0, withEndpoint(err, endpoint)
	}

	policy, hints := c.newBackOff(ctx)
	attempts := 0
	var result json.RawMessage

	operation := func() error {
		attempts++
		raw, wait, err := c.attempt(ctx, log, req.Endpoint, target, body, attempts)
		if err == nil {
			result = raw
			return nil
		}
		err.Attempts = attempts
		if ctx.Err() != nil {
			return backoff.Permanent(cancelled(endpoint, attempts, ctx.Err()))
		}
		if !err.Kind.Retryable() {
			return backoff.Permanent(err)
		}
		hints.setHint(wait)
		return err
	}
	notify := func(err error, delay time.Duration) {
		c.metrics.RecordRetry(ctx, endpoint, domain.KindOf(err))
		log.Info("Retrying API request",
			slog.Int("attempt", attempts),
			slog.Duration("delay", delay),
			slog.String("kind", string(domain.KindOf(err))),
		)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			// The backoff wait was interrupted by ctx.
			return nil, attempts, cancelled(endpoint, attempts, err)
		}
		return nil, attempts, err
	}
	return result, attempts, nil
}

// attempt performs one HTTP exchange under the per-attempt timeout. The
// returned duration is the server's Retry-After hint, if any.
func (c *Client) attempt(ctx context.Context, log *slog.Logger, ep domain.Endpoint, target string, body []byte, n int) (json.RawMessage, time.Duration, *domain.Error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(actx, ep.Method, target, rdr)
	if err != nil {
		return nil, 0, &domain.Error{Kind: domain.KindInternal, Endpoint: ep.Name, Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.credential.Present() {
		httpReq.Header.Set("x-api-key", c.credential.Value())
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordAttempt(ctx, ep.Name, 0)
		log.Debug("API attempt failed", slog.Int("attempt", n), slog.Any("error", err))
		return nil, 0, &domain.Error{Kind: domain.KindTransientNetwork, Endpoint: ep.Name, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.RecordAttempt(ctx, ep.Name, resp.StatusCode)
	log.Debug("API attempt",
		slog.Int("attempt", n),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return nil, 0, &domain.Error{Kind: domain.KindTransientNetwork, Endpoint: ep.Name, Status: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if !json.Valid(data) {
			return nil, 0, &domain.Error{Kind: domain.KindParseError, Endpoint: ep.Name, Status: resp.StatusCode, Message: "response is not valid JSON"}
		}
		return json.RawMessage(data), 0, nil
	}

	apiErr := classify(ep.Name, resp.StatusCode, data)
	var wait time.Duration
	if apiErr.Kind == domain.KindRateLimited {
		wait = retryAfter(resp.Header, time.Now())
	}
	return nil, wait, apiErr
}

func cancelled(endpoint string, attempts int, cause error) *domain.Error {
	return &domain.Error{Kind: domain.KindTransientNetwork, Endpoint: endpoint, Attempts: attempts, Err: cause}
}

func withEndpoint(err error, endpoint string) error {
	var de *domain.Error
	if errors.As(err, &de) && de.Endpoint == "" {
		de.Endpoint = endpoint
	}
	return err
}
