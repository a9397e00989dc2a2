package digest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testRepo = Repo{Owner: "octo", Name: "hello", Branch: "main"}

func TestFetcher_FetchAll(t *testing.T) {
	src := newFakeSource()
	src.contents["README.md"] = "# hello"
	src.contents["main.go"] = "package main"
	src.revisions["README.md"] = &Revision{LastCommit: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), CommitCount: 3}
	src.revErrs["main.go"] = errTransient

	f := &Fetcher{Source: src, Concurrency: 2, Logger: zaptest.NewLogger(t)}
	got, err := f.FetchAll(context.Background(), testRepo, filesFromPaths("README.md", "main.go", "missing.go"))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "README.md", got[0].Path)
	require.NotNil(t, got[0].Content)
	assert.Equal(t, "# hello", *got[0].Content)
	require.NotNil(t, got[0].Revision)
	assert.Equal(t, 3, got[0].Revision.CommitCount)

	assert.Equal(t, "main.go", got[1].Path)
	require.NotNil(t, got[1].Content)
	assert.Nil(t, got[1].Revision, "non rate-limit revision errors degrade to absent")

	assert.Equal(t, "missing.go", got[2].Path)
	assert.Nil(t, got[2].Content)
	assert.Nil(t, got[2].Revision)
}

func TestFetcher_RespectsConcurrencyLimit(t *testing.T) {
	src := newFakeSource()
	src.delay = 10 * time.Millisecond
	var files []File
	for i := 0; i < 40; i++ {
		p := fmt.Sprintf("f%02d.go", i)
		src.contents[p] = p
		files = append(files, File{Path: p})
	}

	f := &Fetcher{Source: src, Concurrency: 10}
	got, err := f.FetchAll(context.Background(), testRepo, files)
	require.NoError(t, err)
	require.Len(t, got, 40)

	assert.LessOrEqual(t, src.maxInFlight.Load(), int64(10))
	assert.Greater(t, src.maxInFlight.Load(), int64(1))
	for i, e := range got {
		require.NotNil(t, e.Content)
		assert.Equal(t, files[i].Path, *e.Content, "slot %d belongs to its own candidate", i)
	}
}

func TestFetcher_RateLimitAbortsBatch(t *testing.T) {
	src := newFakeSource()
	var files []File
	for i := 0; i < 25; i++ {
		p := fmt.Sprintf("f%02d.go", i)
		src.contents[p] = "x"
		files = append(files, File{Path: p})
	}
	src.revErrs["f07.go"] = fmt.Errorf("listing commits: %w", ErrRateLimited)

	f := &Fetcher{Source: src, Concurrency: 4}
	got, err := f.FetchAll(context.Background(), testRepo, files)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "f07.go")
	assert.Nil(t, got)
}

func TestFetcher_Redactor(t *testing.T) {
	src := newFakeSource()
	src.contents["config.yaml"] = "token: hunter2"

	f := &Fetcher{
		Source:   src,
		Redactor: RedactorFunc(func(s string) string { return strings.ReplaceAll(s, "hunter2", "[REDACTED]") }),
	}
	got, err := f.FetchAll(context.Background(), testRepo, filesFromPaths("config.yaml"))
	require.NoError(t, err)

	require.NotNil(t, got[0].Content)
	assert.Equal(t, "token: [REDACTED]", *got[0].Content)
}

func TestFetcher_CanceledContext(t *testing.T) {
	src := newFakeSource()
	src.contents["a.go"] = "a"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &Fetcher{Source: src}
	got, err := f.FetchAll(ctx, testRepo, filesFromPaths("a.go"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestFetcher_EmptyCandidates(t *testing.T) {
	f := &Fetcher{Source: newFakeSource()}
	got, err := f.FetchAll(context.Background(), testRepo, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
