// Package observe provides observability primitives for Clayvoice:
// OpenTelemetry metrics and tracing for the voice turn pipeline.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Clayvoice metrics.
const meterName = "github.com/clayvoice/clayvoice"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per turn stage ---

	// TurnDuration tracks end-to-end turn latency: stop of recording until the
	// model reply is applied to the transcript.
	TurnDuration metric.Float64Histogram

	// SignDuration tracks token signing latency.
	SignDuration metric.Float64Histogram

	// PlaybackDuration tracks per-chunk playback render latency.
	PlaybackDuration metric.Float64Histogram

	// --- Counters ---

	// RemoteRequests counts remote model calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	RemoteRequests metric.Int64Counter

	// RemoteErrors counts failed remote model calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	RemoteErrors metric.Int64Counter

	// StateTransitions counts session state changes. Use with attributes:
	//   attribute.String("from", ...), attribute.String("to", ...)
	StateTransitions metric.Int64Counter

	// --- Gauges ---

	// QueueDepth tracks the number of reply chunks waiting to play.
	QueueDepth metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// voice-turn latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("clayvoice.turn.duration",
		metric.WithDescription("End-to-end latency of one voice turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SignDuration, err = m.Float64Histogram("clayvoice.sign.duration",
		metric.WithDescription("Latency of request token signing."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("clayvoice.playback.duration",
		metric.WithDescription("Latency of rendering one reply audio chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.RemoteRequests, err = m.Int64Counter("clayvoice.remote.requests",
		metric.WithDescription("Total remote model requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.RemoteErrors, err = m.Int64Counter("clayvoice.remote.errors",
		metric.WithDescription("Total remote model errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.StateTransitions, err = m.Int64Counter("clayvoice.session.state_transitions",
		metric.WithDescription("Total session state transitions by from and to state."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.QueueDepth, err = m.Int64UpDownCounter("clayvoice.playback.queue_depth",
		metric.WithDescription("Number of reply audio chunks waiting to play."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRemoteRequest records a remote model request with the standard
// attribute set.
func (m *Metrics) RecordRemoteRequest(ctx context.Context, provider, status string) {
	m.RemoteRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordRemoteError records a failed remote model request with the standard
// attribute set.
func (m *Metrics) RecordRemoteError(ctx context.Context, provider, kind string) {
	m.RemoteErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordStateTransition records one session state change.
func (m *Metrics) RecordStateTransition(ctx context.Context, from, to string) {
	m.StateTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}
