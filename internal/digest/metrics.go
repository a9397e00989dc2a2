package digest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/repodigest/internal/digest"

// Metrics provides OpenTelemetry metrics for digest builds.
type Metrics struct {
	buildsTotal     metric.Int64Counter
	filesTotal      metric.Int64Counter
	sectionsTotal   metric.Int64Counter
	digestChars     metric.Int64Histogram
	fetchedContents metric.Int64Counter
}

// NewMetrics creates Metrics from meter. A nil meter uses the global provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.buildsTotal, err = meter.Int64Counter(
		"digest.builds.total",
		metric.WithDescription("Total number of digest builds by outcome"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return nil, err
	}

	m.filesTotal, err = meter.Int64Counter(
		"digest.files.total",
		metric.WithDescription("Files seen by the filter pipeline by disposition (seen, excluded, selected)"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	m.sectionsTotal, err = meter.Int64Counter(
		"digest.sections.total",
		metric.WithDescription("File sections written to digests by kind (full, truncated)"),
		metric.WithUnit("{section}"),
	)
	if err != nil {
		return nil, err
	}

	m.fetchedContents, err = meter.Int64Counter(
		"digest.fetch.total",
		metric.WithDescription("Candidate content fetches by result (ok, absent)"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	m.digestChars, err = meter.Int64Histogram(
		"digest.size.chars",
		metric.WithDescription("Size of assembled digests in characters"),
		metric.WithUnit("{char}"),
		metric.WithExplicitBucketBoundaries(1000, 5000, 10000, 20000, 40000, 60000, 80000, 120000),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordBuild(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.buildsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) recordFiles(ctx context.Context, seen, excluded, selected int) {
	if m == nil {
		return
	}
	m.filesTotal.Add(ctx, int64(seen), metric.WithAttributes(attribute.String("disposition", "seen")))
	m.filesTotal.Add(ctx, int64(excluded), metric.WithAttributes(attribute.String("disposition", "excluded")))
	m.filesTotal.Add(ctx, int64(selected), metric.WithAttributes(attribute.String("disposition", "selected")))
}

func (m *Metrics) recordFetch(ctx context.Context, ok, absent int) {
	if m == nil {
		return
	}
	m.fetchedContents.Add(ctx, int64(ok), metric.WithAttributes(attribute.String("result", "ok")))
	m.fetchedContents.Add(ctx, int64(absent), metric.WithAttributes(attribute.String("result", "absent")))
}

func (m *Metrics) recordAssembly(ctx context.Context, a assembly) {
	if m == nil {
		return
	}
	m.sectionsTotal.Add(ctx, int64(a.sections-a.truncated), metric.WithAttributes(attribute.String("kind", "full")))
	m.sectionsTotal.Add(ctx, int64(a.truncated), metric.WithAttributes(attribute.String("kind", "truncated")))
	m.digestChars.Record(ctx, int64(a.chars))
}
