package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric name constants for the generation client.
const (
	MetricRequests       = "workflowgen.llm.requests"
	MetricRequestLatency = "workflowgen.llm.latency"
	MetricRequestErrors  = "workflowgen.llm.errors"
	MetricCacheHits      = "workflowgen.llm.cache.hits"
	MetricCacheMisses    = "workflowgen.llm.cache.misses"
	MetricInFlight       = "workflowgen.llm.in_flight"
)

// Metrics records per-request latency and error-rate instrumentation for the
// generation client. A nil-safe noop meter is used when none is provided.
type Metrics struct {
	requests    metric.Int64Counter
	latency     metric.Float64Histogram
	errors      metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	inFlight    metric.Int64UpDownCounter
}

// NewMetrics creates the client instrument set on the given meter.
// Pass a nil meter to get noop instruments.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("workflowgen")
	}

	requests, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Total generation requests issued"))
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(MetricRequestLatency,
		metric.WithDescription("Generation request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(MetricRequestErrors,
		metric.WithDescription("Generation requests that failed"))
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Prompt cache hits"))
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Prompt cache misses"))
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter(MetricInFlight,
		metric.WithDescription("Generation requests currently in flight"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requests:    requests,
		latency:     latency,
		errors:      errCounter,
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
		inFlight:    inFlight,
	}, nil
}

func (m *Metrics) recordRequest(ctx context.Context, model string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("model", model))
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) recordCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Add(ctx, 1)
	} else {
		m.cacheMisses.Add(ctx, 1)
	}
}

func (m *Metrics) addInFlight(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.inFlight.Add(ctx, delta)
}
