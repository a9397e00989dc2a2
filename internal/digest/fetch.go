package digest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight candidates in FetchAll.
const DefaultConcurrency = 10

// Fetcher enriches candidates with content and revision metadata.
type Fetcher struct {
	Source Source

	// Concurrency limits how many candidates are fetched at once.
	// Values below one use DefaultConcurrency.
	Concurrency int

	// Redactor, if set, scrubs content before it is stored.
	Redactor Redactor

	Logger *zap.Logger
}

// FetchAll fetches every candidate and returns one enriched slot per candidate
// in input order. Content and revision failures leave the corresponding field
// nil. A rate-limited revision fetch aborts the batch and FetchAll returns the
// error with no results.
func (f *Fetcher) FetchAll(ctx context.Context, repo Repo, candidates []File) ([]EnrichedFile, error) {
	limit := f.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	slots := make([]EnrichedFile, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range candidates {
		slot := &slots[i]
		slot.File = candidates[i]
		g.Go(func() error {
			return f.enrich(gctx, repo, slot)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// enrich fills slot. It is the only writer of slot.
func (f *Fetcher) enrich(ctx context.Context, repo Repo, slot *EnrichedFile) error {
	if ctx.Err() != nil {
		// The batch already failed or the caller gave up.
		return nil
	}

	var (
		content  string
		ok       bool
		revision *Revision
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		content, ok = f.Source.FetchContent(gctx, repo, slot.File)
		return nil
	})
	g.Go(func() error {
		rev, err := f.Source.FetchRevision(gctx, repo, slot.Path)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				return fmt.Errorf("fetching revision for %s: %w", slot.Path, err)
			}
			f.logger().Debug("revision metadata unavailable",
				zap.String("path", slot.Path),
				zap.Error(err))
			return nil
		}
		revision = rev
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if ok {
		if f.Redactor != nil {
			content = f.Redactor.Redact(content)
		}
		slot.Content = &content
	} else {
		f.logger().Debug("content unavailable", zap.String("path", slot.Path))
	}
	slot.Revision = revision
	return nil
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
