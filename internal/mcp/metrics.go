package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/analyzer"
)

const instrumentationName = "github.com/fyrsmithlabs/repodigest/internal/mcp"

// Latency buckets in seconds. A digest is bound by GitHub round trips; a
// summary adds one LLM completion on top, which can take a minute or more.
var latencyBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120}

// Section buckets follow the digest's file selection cap.
var sectionBuckets = []float64{0, 1, 5, 10, 20, 30, 40, 50}

// Metrics instruments the summarize_repository and repository_digest tools.
//
// Every call is counted and timed under a (tool, outcome) pair, where outcome
// is "ok" or the failure class from analyzer.Outcome. Calls still running are
// tracked per tool, and served digests record how many file sections they
// carried.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	calls    metric.Int64Counter
	latency  metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
	sections metric.Int64Histogram
}

// NewMetrics builds tool instruments on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	return newMetrics(otel.Meter(instrumentationName), logger)
}

func newMetrics(meter metric.Meter, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{meter: meter, logger: logger}

	var err error
	if m.calls, err = meter.Int64Counter(
		"repodigest.mcp.calls",
		metric.WithDescription("Repository tool calls by tool and outcome"),
		metric.WithUnit("{call}"),
	); err != nil {
		logger.Warn("tool call counter unavailable", zap.Error(err))
	}
	if m.latency, err = meter.Float64Histogram(
		"repodigest.mcp.call.latency",
		metric.WithDescription("Time to digest or summarize a repository, by tool and outcome"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		logger.Warn("tool latency histogram unavailable", zap.Error(err))
	}
	if m.inFlight, err = meter.Int64UpDownCounter(
		"repodigest.mcp.calls.in_flight",
		metric.WithDescription("Repository tool calls currently running"),
		metric.WithUnit("{call}"),
	); err != nil {
		logger.Warn("in-flight gauge unavailable", zap.Error(err))
	}
	if m.sections, err = meter.Int64Histogram(
		"repodigest.mcp.digest.sections",
		metric.WithDescription("File sections included in digests served by repository_digest"),
		metric.WithUnit("{section}"),
		metric.WithExplicitBucketBoundaries(sectionBuckets...),
	); err != nil {
		logger.Warn("digest sections histogram unavailable", zap.Error(err))
	}
	return m
}

// Start marks a call to tool as running. The returned func ends the call,
// recording its outcome and latency.
func (m *Metrics) Start(ctx context.Context, tool string) func(error) {
	toolAttr := metric.WithAttributes(attribute.String("tool", tool))
	if m.inFlight != nil {
		m.inFlight.Add(ctx, 1, toolAttr)
	}
	start := time.Now()

	return func(err error) {
		if m.inFlight != nil {
			m.inFlight.Add(ctx, -1, toolAttr)
		}
		attrs := metric.WithAttributeSet(attribute.NewSet(
			attribute.String("tool", tool),
			attribute.String("outcome", callOutcome(err)),
		))
		if m.calls != nil {
			m.calls.Add(ctx, 1, attrs)
		}
		if m.latency != nil {
			m.latency.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	}
}

// RecordDigest records the section count of a digest returned to a client.
func (m *Metrics) RecordDigest(ctx context.Context, sections int) {
	if m.sections != nil {
		m.sections.Record(ctx, int64(sections))
	}
}

// callOutcome labels a finished tool call. Context errors are split out
// because the client, not the repository, ended those calls.
func callOutcome(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return analyzer.Outcome(err)
	}
}
