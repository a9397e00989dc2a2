package gitlocal

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
)

var (
	firstCommit  = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	secondCommit = time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC)
)

// newTestRepo creates a clone with two commits. README.md is touched by both.
func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(when time.Time, files map[string]string) {
		t.Helper()
		for name, body := range files {
			full := filepath.Join(dir, filepath.FromSlash(name))
			require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
			require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
			_, err := wt.Add(name)
			require.NoError(t, err)
		}
		sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when}
		_, err := wt.Commit("update", &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
	}

	commit(firstCommit, map[string]string{
		"README.md":       "# Demo\n",
		"cmd/app/main.go": "package main\n\nfunc main() {}\n",
		"assets/logo.bin": "\x00\x01\x02\x03",
	})
	commit(secondCommit, map[string]string{
		"README.md": "# Demo\n\nNow with docs.\n",
	})
	return dir
}

func TestOpen(t *testing.T) {
	dir := newTestRepo(t)

	r, err := Open(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	repo := r.Repo()
	assert.Equal(t, "local", repo.Owner)
	assert.Equal(t, filepath.Base(dir), repo.Name)
	assert.Equal(t, "master", repo.Branch)

	branch, err := r.ResolveBranch(context.Background(), "ignored", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestOpen_Subdirectory(t *testing.T) {
	dir := newTestRepo(t)

	r, err := Open(filepath.Join(dir, "cmd", "app"), nil)
	require.NoError(t, err)
	assert.Equal(t, "master", r.Repo().Branch)
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir(), nil)
	assert.ErrorIs(t, err, digest.ErrNotFound)
}

func TestListFiles(t *testing.T) {
	r, err := Open(newTestRepo(t), nil)
	require.NoError(t, err)

	files, err := r.ListFiles(context.Background(), r.Repo())
	require.NoError(t, err)

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	assert.Equal(t, []digest.File{
		{Path: "README.md", Size: int64(len("# Demo\n\nNow with docs.\n"))},
		{Path: "assets/logo.bin", Size: 4},
		{Path: "cmd/app/main.go", Size: int64(len("package main\n\nfunc main() {}\n"))},
	}, files)
}

func TestFetchContent(t *testing.T) {
	r, err := Open(newTestRepo(t), nil)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{name: "text at HEAD", path: "README.md", want: "# Demo\n\nNow with docs.\n", wantOK: true},
		{name: "nested", path: "cmd/app/main.go", want: "package main\n\nfunc main() {}\n", wantOK: true},
		{name: "binary", path: "assets/logo.bin"},
		{name: "missing", path: "nope.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.FetchContent(ctx, r.Repo(), digest.File{Path: tt.path})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchContent_CanceledContext(t *testing.T) {
	r, err := Open(newTestRepo(t), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := r.FetchContent(ctx, r.Repo(), digest.File{Path: "README.md"})
	assert.False(t, ok)
}

func TestFetchRevision(t *testing.T) {
	r, err := Open(newTestRepo(t), nil)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("touched twice", func(t *testing.T) {
		rev, err := r.FetchRevision(ctx, r.Repo(), "README.md")
		require.NoError(t, err)
		require.NotNil(t, rev)
		assert.Equal(t, 2, rev.CommitCount)
		assert.True(t, secondCommit.Equal(rev.LastCommit), "got %s", rev.LastCommit)
	})

	t.Run("touched once", func(t *testing.T) {
		rev, err := r.FetchRevision(ctx, r.Repo(), "cmd/app/main.go")
		require.NoError(t, err)
		require.NotNil(t, rev)
		assert.Equal(t, 1, rev.CommitCount)
		assert.True(t, firstCommit.Equal(rev.LastCommit), "got %s", rev.LastCommit)
	})

	t.Run("never committed", func(t *testing.T) {
		rev, err := r.FetchRevision(ctx, r.Repo(), "nope.txt")
		require.NoError(t, err)
		assert.Nil(t, rev)
	})
}

func TestBuildContext_LocalClone(t *testing.T) {
	r, err := Open(newTestRepo(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	files, err := r.ListFiles(ctx, r.Repo())
	require.NoError(t, err)

	b := digest.NewBuilder(r, digest.DefaultOptions(), digest.WithLogger(zaptest.NewLogger(t)))
	got, err := b.BuildContext(ctx, r.Repo(), files)
	require.NoError(t, err)

	assert.Contains(t, got, "## File: README.md\nLast commit: 2024-03-05T12:30:00Z\nCommits: 2\n")
	assert.Contains(t, got, "Now with docs.")
	assert.NotContains(t, got, "## File: assets/logo.bin")
}
