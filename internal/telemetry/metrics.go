// Package telemetry wires OpenTelemetry tracing and metrics for scholarmcp.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed in
// Prometheus format by the admin server. Tests should build [Metrics] with
// [NewMetrics] over an isolated [metric.MeterProvider].
package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/scholarmcp/internal/domain"
)

// ScopeName is the instrumentation scope for all scholarmcp telemetry.
const ScopeName = "github.com/i2y/scholarmcp"

// Metrics holds the metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// APIRequests counts HTTP attempts against the Semantic Scholar API.
	// Attributes: endpoint, status_class ("2xx", "4xx", "5xx", "error").
	APIRequests metric.Int64Counter

	// APIRetries counts retries scheduled by the API client.
	// Attributes: endpoint, kind.
	APIRetries metric.Int64Counter

	// APIDuration tracks the latency of a whole Send call including retries.
	// Attributes: endpoint, outcome ("ok" or an error kind).
	APIDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Attributes: tool, outcome.
	ToolCalls metric.Int64Counter

	// ToolDuration tracks tool invocation latency. Attributes: tool.
	ToolDuration metric.Float64Histogram
}

// latencyBuckets in seconds; retries with backoff can take tens of seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(ScopeName)
	var err error
	met := &Metrics{}

	if met.APIRequests, err = m.Int64Counter("scholarmcp.api.requests",
		metric.WithDescription("HTTP attempts against the Semantic Scholar API by endpoint and status class."),
	); err != nil {
		return nil, err
	}
	if met.APIRetries, err = m.Int64Counter("scholarmcp.api.retries",
		metric.WithDescription("Retries scheduled after a retryable API failure."),
	); err != nil {
		return nil, err
	}
	if met.APIDuration, err = m.Float64Histogram("scholarmcp.api.duration",
		metric.WithDescription("Latency of API client calls including retries."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("scholarmcp.tool.calls",
		metric.WithDescription("Tool invocations by tool name and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram("scholarmcp.tool.duration",
		metric.WithDescription("Latency of tool invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// StatusClass maps an HTTP status to its class label; 0 means no response.
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func outcome(kind domain.ErrorKind) string {
	if kind == "" {
		return "ok"
	}
	return string(kind)
}

// RecordAttempt records one HTTP attempt.
func (m *Metrics) RecordAttempt(ctx context.Context, endpoint string, status int) {
	m.APIRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status_class", StatusClass(status)),
	))
}

// RecordRetry records a scheduled retry after a failure of kind.
func (m *Metrics) RecordRetry(ctx context.Context, endpoint string, kind domain.ErrorKind) {
	m.APIRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("kind", string(kind)),
	))
}

// RecordCall records the latency of a complete API call. kind is "" on success.
func (m *Metrics) RecordCall(ctx context.Context, endpoint string, kind domain.ErrorKind, d time.Duration) {
	m.APIDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome(kind)),
	))
}

// RecordToolCall records a tool invocation. kind is "" on success.
func (m *Metrics) RecordToolCall(ctx context.Context, tool string, kind domain.ErrorKind, d time.Duration) {
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome(kind)),
	))
	m.ToolDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("tool", tool)))
}

// Tracer returns the scholarmcp tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}
