package digest

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultMaxFiles is the number of top-ranked candidates fetched per digest.
const DefaultMaxFiles = 40

// Options configures a Builder.
type Options struct {
	// MaxFiles caps the candidate set taken from the ranked inventory.
	MaxFiles int

	// Concurrency bounds in-flight candidate fetches.
	Concurrency int

	Assemble AssembleOptions
}

// DefaultOptions returns 40 candidates, 10 concurrent fetches and the
// default assembly budget.
func DefaultOptions() Options {
	return Options{
		MaxFiles:    DefaultMaxFiles,
		Concurrency: DefaultConcurrency,
		Assemble:    DefaultAssembleOptions(),
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFiles <= 0 {
		o.MaxFiles = d.MaxFiles
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	if o.Assemble.MaxChars <= 0 {
		o.Assemble.MaxChars = d.Assemble.MaxChars
	}
	if o.Assemble.MaxFileChars <= 0 {
		o.Assemble.MaxFileChars = d.Assemble.MaxFileChars
	}
	if o.Assemble.PartialThreshold <= 0 {
		o.Assemble.PartialThreshold = d.Assemble.PartialThreshold
	}
	if o.Assemble.PartialMargin <= 0 {
		o.Assemble.PartialMargin = d.Assemble.PartialMargin
	}
	if o.Assemble.Tree.MaxLines <= 0 {
		o.Assemble.Tree.MaxLines = d.Assemble.Tree.MaxLines
	}
	if o.Assemble.Tree.SummaryThreshold <= 0 {
		o.Assemble.Tree.SummaryThreshold = d.Assemble.Tree.SummaryThreshold
	}
	return o
}

// Builder produces digests. It holds no per-request state and is safe for
// concurrent use.
type Builder struct {
	source   Source
	rules    Rules
	opts     Options
	redactor Redactor
	logger   *zap.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRules replaces DefaultRules.
func WithRules(rules Rules) BuilderOption {
	return func(b *Builder) {
		b.rules = rules
	}
}

// WithRedactor scrubs fetched content before assembly.
func WithRedactor(r Redactor) BuilderOption {
	return func(b *Builder) {
		b.redactor = r
	}
}

// WithMetrics records build metrics.
func WithMetrics(m *Metrics) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder returns a Builder reading from source. Zero fields in opts take
// their DefaultOptions values.
func NewBuilder(source Source, opts Options, options ...BuilderOption) *Builder {
	b := &Builder{
		source: source,
		rules:  DefaultRules(),
		opts:   opts.withDefaults(),
		logger: zap.NewNop(),
		tracer: otel.Tracer(InstrumentationName),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Digest is the result of a build.
type Digest struct {
	// Text is the assembled context.
	Text string
	// Candidates are the fetched top-ranked files in score order, including
	// those that did not fit the budget.
	Candidates []EnrichedFile
	Sections   int
	Truncated  int
	Chars      int
}

// BuildContext filters and ranks files, fetches the top candidates and
// assembles the digest for repo. It returns an error wrapping ErrRateLimited
// when revision metadata is throttled; no partial digest is returned then.
//
// An empty files slice yields a digest whose tree is EmptyTreeMarker. Callers
// that treat empty repositories as an error should check before calling.
func (b *Builder) BuildContext(ctx context.Context, repo Repo, files []File) (string, error) {
	d, err := b.Build(ctx, repo, files)
	if err != nil {
		return "", err
	}
	return d.Text, nil
}

// Build is BuildContext that also returns the fetched candidates and
// assembly counters.
func (b *Builder) Build(ctx context.Context, repo Repo, files []File) (*Digest, error) {
	ctx, span := b.tracer.Start(ctx, "digest.Build",
		trace.WithAttributes(
			attribute.String("repository", repo.FullName()),
			attribute.String("branch", repo.Branch),
			attribute.Int("files", len(files)),
		))
	defer span.End()

	start := time.Now()

	ranked := NewPipeline(b.rules).FilterAndRank(files)
	candidates := TopN(ranked, b.opts.MaxFiles)
	b.metrics.recordFiles(ctx, len(files), len(files)-len(ranked), len(candidates))

	fetcher := &Fetcher{
		Source:      b.source,
		Concurrency: b.opts.Concurrency,
		Redactor:    b.redactor,
		Logger:      b.logger,
	}
	enriched, err := fetcher.FetchAll(ctx, repo, candidates)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrRateLimited) {
			outcome = "rate_limited"
		}
		b.metrics.recordBuild(ctx, outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Warn("digest build failed",
			zap.String("repository", repo.FullName()),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	fetched := 0
	for _, e := range enriched {
		if e.Content != nil {
			fetched++
		}
	}
	b.metrics.recordFetch(ctx, fetched, len(enriched)-fetched)

	a := assemble(files, enriched, b.opts.Assemble)
	b.metrics.recordAssembly(ctx, a)
	b.metrics.recordBuild(ctx, "ok")

	span.SetAttributes(
		attribute.Int("digest.chars", a.chars),
		attribute.Int("digest.sections", a.sections),
	)
	b.logger.Debug("digest built",
		zap.String("repository", repo.FullName()),
		zap.String("branch", repo.Branch),
		zap.Int("files", len(files)),
		zap.Int("candidates", len(candidates)),
		zap.Int("fetched", fetched),
		zap.Int("sections", a.sections),
		zap.Int("truncated", a.truncated),
		zap.Int("chars", a.chars),
		zap.Duration("duration", time.Since(start)))

	return &Digest{
		Text:       a.text,
		Candidates: enriched,
		Sections:   a.sections,
		Truncated:  a.truncated,
		Chars:      a.chars,
	}, nil
}
