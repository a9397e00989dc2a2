package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/analyzer"
	"github.com/fyrsmithlabs/repodigest/internal/config"
	"github.com/fyrsmithlabs/repodigest/internal/digest"
	"github.com/fyrsmithlabs/repodigest/internal/ghrepo"
	"github.com/fyrsmithlabs/repodigest/internal/secrets"
	"github.com/fyrsmithlabs/repodigest/internal/summarizer"
)

// Registry provides access to the wired repodigest services.
type Registry interface {
	Analyzer() *analyzer.Service
	Provider() digest.Provider
	Builder() *digest.Builder
	Scrubber() *secrets.Scrubber
	// Summarizer is nil when no LLM API key is configured.
	Summarizer() analyzer.Summarizer
}

// Options configures New.
type Options struct {
	// Provider replaces the GitHub client, e.g. with a local clone.
	Provider digest.Provider

	// Meter receives digest metrics. Nil uses the global provider.
	Meter metric.Meter

	Logger *zap.Logger
}

// registry is the concrete implementation of Registry.
type registry struct {
	analyzer   *analyzer.Service
	provider   digest.Provider
	builder    *digest.Builder
	scrubber   *secrets.Scrubber
	summarizer analyzer.Summarizer
}

// New wires every service from cfg. A missing LLM API key is not an error:
// digests still work and summaries fail with summarizer.ErrMissingAPIKey.
func New(ctx context.Context, cfg *config.Config, opts Options) (Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &registry{provider: opts.Provider}
	if r.provider == nil {
		gh, err := ghrepo.NewClient(ctx, GitHubConfig(cfg.GitHub), logger.Named("github"))
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}
		r.provider = gh
	}

	scrubber, err := secrets.New(ScrubberConfig(cfg.Secrets), logger.Named("secrets"))
	if err != nil {
		return nil, fmt.Errorf("failed to create secret scrubber: %w", err)
	}
	r.scrubber = scrubber

	metrics, err := digest.NewMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest metrics: %w", err)
	}

	builderOpts := []digest.BuilderOption{
		digest.WithLogger(logger.Named("digest")),
		digest.WithMetrics(metrics),
	}
	if scrubber.Enabled() {
		builderOpts = append(builderOpts, digest.WithRedactor(scrubber))
	}
	r.builder = digest.NewBuilder(r.provider, BuilderOptions(cfg.Digest), builderOpts...)

	summ, err := summarizer.New(summarizer.FromSettings(cfg.LLM), logger.Named("summarizer"))
	switch {
	case errors.Is(err, summarizer.ErrMissingAPIKey):
		logger.Warn("LLM API key not configured, summaries are disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	default:
		r.summarizer = summ
	}

	r.analyzer = analyzer.NewService(r.provider, r.builder, r.summarizer, logger.Named("analyzer"))
	return r, nil
}

// GitHubConfig maps settings onto a ghrepo.Config.
func GitHubConfig(s config.GitHubConfig) ghrepo.Config {
	retry := ghrepo.DefaultRetryConfig()
	if s.MaxRetries > 0 {
		retry.MaxRetries = s.MaxRetries
	}
	return ghrepo.Config{
		Token:      s.Token,
		Timeout:    s.Timeout.Duration(),
		BaseURL:    s.BaseURL,
		RawBaseURL: s.RawBaseURL,
		Retry:      retry,
	}
}

// ScrubberConfig maps settings onto the built-in secret rules.
func ScrubberConfig(s config.SecretsConfig) secrets.Config {
	cfg := secrets.DefaultConfig()
	cfg.Enabled = s.Enabled
	cfg.Gitleaks = s.Gitleaks
	return cfg
}

// BuilderOptions maps settings onto digest.Options. Zero values keep the
// defaults.
func BuilderOptions(s config.DigestConfig) digest.Options {
	opts := digest.DefaultOptions()
	if s.MaxFiles > 0 {
		opts.MaxFiles = s.MaxFiles
	}
	if s.Concurrency > 0 {
		opts.Concurrency = s.Concurrency
	}
	if s.MaxChars > 0 {
		opts.Assemble.MaxChars = s.MaxChars
	}
	if s.MaxFileChars > 0 {
		opts.Assemble.MaxFileChars = s.MaxFileChars
	}
	if s.TreeMaxLines > 0 {
		opts.Assemble.Tree.MaxLines = s.TreeMaxLines
	}
	return opts
}

func (r *registry) Analyzer() *analyzer.Service     { return r.analyzer }
func (r *registry) Provider() digest.Provider       { return r.provider }
func (r *registry) Builder() *digest.Builder        { return r.builder }
func (r *registry) Scrubber() *secrets.Scrubber     { return r.scrubber }
func (r *registry) Summarizer() analyzer.Summarizer { return r.summarizer }
