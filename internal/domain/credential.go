package domain

import "log/slog"

// Credential is the optional Semantic Scholar API key. It is read once at
// startup and shared read-only by every request. An empty Credential is valid
// and means requests are sent unauthenticated.
//
// String and LogValue redact the key; use Value to obtain it for the header.
type Credential string

// Present reports whether a key is configured.
func (c Credential) Present() bool { return c != "" }

// Value returns the raw key.
func (c Credential) Value() string { return string(c) }

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[REDACTED]"
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
