package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
	"github.com/fyrsmithlabs/repodigest/internal/manifest"
	"github.com/fyrsmithlabs/repodigest/internal/summarizer"
)

const instrumentationName = "github.com/fyrsmithlabs/repodigest/internal/analyzer"

// Summarizer produces a structured summary from a digest.
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (*summarizer.Summary, error)
}

// DigestResult is the assembled context for one repository.
type DigestResult struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Digest     string `json:"digest"`
	Chars      int    `json:"chars"`
	Files      int    `json:"files"`
	Sections   int    `json:"sections"`

	hints []manifest.Hint
}

// Hints returns the manifests detected among the fetched candidates.
func (r *DigestResult) Hints() []manifest.Hint {
	return r.hints
}

// Result is a structured summary of one repository.
type Result struct {
	summarizer.Summary

	Repository string `json:"-"`
	Branch     string `json:"-"`
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	lister     digest.Lister
	builder    *digest.Builder
	summarizer Summarizer
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewService creates a Service over provider. summ may be nil, in which case
// Summarize fails with summarizer.ErrMissingAPIKey and Digest still works.
func NewService(provider digest.Provider, builder *digest.Builder, summ Summarizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = digest.NewBuilder(provider, digest.DefaultOptions(), digest.WithLogger(logger))
	}
	return &Service{
		lister:     provider,
		builder:    builder,
		summarizer: summ,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
	}
}

// Digest parses rawURL, resolves the default branch and builds the digest.
func (s *Service) Digest(ctx context.Context, rawURL string) (_ *DigestResult, err error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.Digest")
	defer s.finish(span, opDigest, time.Now(), &err)

	repo, err := s.resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("repository", repo.FullName()))
	return s.build(ctx, repo)
}

// DigestRepo builds the digest for an already resolved repo. It is used for
// local clones, where there is no URL to parse.
func (s *Service) DigestRepo(ctx context.Context, repo digest.Repo) (_ *DigestResult, err error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.DigestRepo",
		trace.WithAttributes(attribute.String("repository", repo.FullName())))
	defer s.finish(span, opDigest, time.Now(), &err)

	return s.build(ctx, repo)
}

// Summarize builds the digest for rawURL and asks the model to summarize it.
func (s *Service) Summarize(ctx context.Context, rawURL string) (_ *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.Summarize")
	defer s.finish(span, opSummarize, time.Now(), &err)

	if s.summarizer == nil {
		return nil, summarizer.ErrMissingAPIKey
	}

	repo, err := s.resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("repository", repo.FullName()))

	d, err := s.build(ctx, repo)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarizer.Summarize(ctx, summarizer.Request{
		Repository: d.Repository,
		Context:    d.Digest,
		Hints:      manifest.Line(d.hints),
	})
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", d.Repository, err)
	}
	return &Result{
		Summary:    *summary,
		Repository: d.Repository,
		Branch:     d.Branch,
	}, nil
}

func (s *Service) resolve(ctx context.Context, rawURL string) (digest.Repo, error) {
	owner, name, err := ParseGitHubURL(rawURL)
	if err != nil {
		return digest.Repo{}, err
	}
	branch, err := s.lister.ResolveBranch(ctx, owner, name)
	if err != nil {
		return digest.Repo{}, fmt.Errorf("resolving branch for %s/%s: %w", owner, name, err)
	}
	return digest.Repo{Owner: owner, Name: name, Branch: branch}, nil
}

func (s *Service) build(ctx context.Context, repo digest.Repo) (*DigestResult, error) {
	files, err := s.lister.ListFiles(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("listing %s@%s: %w", repo.FullName(), repo.Branch, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s@%s: %w", repo.FullName(), repo.Branch, digest.ErrEmptyRepository)
	}

	d, err := s.builder.Build(ctx, repo, files)
	if err != nil {
		return nil, fmt.Errorf("building digest for %s: %w", repo.FullName(), err)
	}
	DigestChars.Observe(float64(d.Chars))

	return &DigestResult{
		Repository: repo.FullName(),
		Branch:     repo.Branch,
		Digest:     d.Text,
		Chars:      d.Chars,
		Files:      len(files),
		Sections:   d.Sections,
		hints:      manifest.Detect(d.Candidates),
	}, nil
}

// finish records metrics and closes span for one operation.
func (s *Service) finish(span trace.Span, op string, start time.Time, errp *error) {
	err := *errp
	outcome := Outcome(err)
	elapsed := time.Since(start)

	AnalysesTotal.WithLabelValues(op, outcome).Inc()
	AnalysisDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Info("analysis failed",
			zap.String("operation", op),
			zap.String("outcome", outcome),
			zap.Duration("duration", elapsed),
			zap.Error(err))
	} else {
		s.logger.Info("analysis completed",
			zap.String("operation", op),
			zap.Duration("duration", elapsed))
	}
	span.End()
}
