// Package observe provides observability primitives for the
// gurbani-transcribe pipeline: OpenTelemetry metrics and distributed
// tracing over the chunk/route/ASR/fusion/script/quote stages spec.md §10
// names, plus structured logging conventions shared by every package.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pipeline
// metrics.
const meterName = "github.com/gurbani-transcribe/core"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use — the underlying OTel types
// handle their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage (spec.md §2's component
	// table; §10.1's per-stage latency requirement) ---

	ChunkDuration  metric.Float64Histogram
	RouteDuration  metric.Float64Histogram
	ASRDuration    metric.Float64Histogram
	FusionDuration metric.Float64Histogram
	ScriptDuration metric.Float64Histogram
	QuoteDuration  metric.Float64Histogram

	// --- Counters ---

	// ChunksProcessed counts chunks that completed the pipeline. Use with
	// attribute: attribute.String("route", ...).
	ChunksProcessed metric.Int64Counter

	// QuotesDetected counts candidates the quote detector flagged.
	QuotesDetected metric.Int64Counter

	// QuotesReplaced counts candidates the matcher accepted and replaced
	// with canonical text.
	QuotesReplaced metric.Int64Counter

	// ASREngineErrors counts per-engine transcription failures. Use with
	// attribute: attribute.String("engine_id", ...).
	ASREngineErrors metric.Int64Counter

	// RedecodeAttempts counts fusion results that fell under the
	// redecode floor and triggered a second ASR pass.
	RedecodeAttempts metric.Int64Counter

	// LiveChunksDropped counts chunks discarded by live-mode backpressure
	// (spec.md §5's live_queue_depth rule).
	LiveChunksDropped metric.Int64Counter

	// --- Gauges ---

	// ActiveLiveSessions tracks the number of open live sessions.
	ActiveLiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds)
// optimised for chunk-level pipeline stage latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation
// fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	stageHistograms := []struct {
		dest *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.ChunkDuration, "gurbani_transcribe.chunk.duration", "Latency of VAD chunking."},
		{&met.RouteDuration, "gurbani_transcribe.route.duration", "Latency of router classification."},
		{&met.ASRDuration, "gurbani_transcribe.asr.duration", "Latency of ASR engine fan-out for one chunk."},
		{&met.FusionDuration, "gurbani_transcribe.fusion.duration", "Latency of hypothesis fusion."},
		{&met.ScriptDuration, "gurbani_transcribe.script.duration", "Latency of script conversion."},
		{&met.QuoteDuration, "gurbani_transcribe.quote.duration", "Latency of quote detection and matching."},
	}
	for _, h := range stageHistograms {
		if *h.dest, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	if met.ChunksProcessed, err = m.Int64Counter("gurbani_transcribe.chunks.processed",
		metric.WithDescription("Total chunks that completed the pipeline, by route."),
	); err != nil {
		return nil, err
	}
	if met.QuotesDetected, err = m.Int64Counter("gurbani_transcribe.quotes.detected",
		metric.WithDescription("Total quote candidates flagged by the detector."),
	); err != nil {
		return nil, err
	}
	if met.QuotesReplaced, err = m.Int64Counter("gurbani_transcribe.quotes.replaced",
		metric.WithDescription("Total candidates accepted and replaced with canonical text."),
	); err != nil {
		return nil, err
	}
	if met.ASREngineErrors, err = m.Int64Counter("gurbani_transcribe.asr.engine_errors",
		metric.WithDescription("Total per-engine ASR failures, by engine_id."),
	); err != nil {
		return nil, err
	}
	if met.RedecodeAttempts, err = m.Int64Counter("gurbani_transcribe.fusion.redecode_attempts",
		metric.WithDescription("Total chunks that triggered a re-decode pass."),
	); err != nil {
		return nil, err
	}
	if met.LiveChunksDropped, err = m.Int64Counter("gurbani_transcribe.live.chunks_dropped",
		metric.WithDescription("Total chunks discarded by live-mode backpressure."),
	); err != nil {
		return nil, err
	}

	if met.ActiveLiveSessions, err = m.Int64UpDownCounter("gurbani_transcribe.live.active_sessions",
		metric.WithDescription("Number of currently open live transcription sessions."),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen
// with the global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity
// at call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordChunkProcessed records one chunk completing the pipeline under
// the given route kind.
func (m *Metrics) RecordChunkProcessed(ctx context.Context, route string) {
	m.ChunksProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// RecordASREngineError records one engine's transcription failure.
func (m *Metrics) RecordASREngineError(ctx context.Context, engineID string) {
	m.ASREngineErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("engine_id", engineID)))
}

// RecordQuoteDetected records one candidate flagged by the quote
// detector.
func (m *Metrics) RecordQuoteDetected(ctx context.Context) {
	m.QuotesDetected.Add(ctx, 1)
}

// RecordQuoteReplaced records one candidate accepted and replaced with
// canonical scripture text.
func (m *Metrics) RecordQuoteReplaced(ctx context.Context) {
	m.QuotesReplaced.Add(ctx, 1)
}
