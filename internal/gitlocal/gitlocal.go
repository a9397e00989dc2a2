// Package gitlocal reads a repository inventory, file content and revision
// history from a local clone using go-git, so a digest can be built offline.
package gitlocal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
)

// maxContentBytes bounds how much of a blob is read.
const maxContentBytes = 2 << 20

// Repository is a local clone opened at HEAD.
type Repository struct {
	// go-git repositories are not safe for concurrent reads of the same
	// object storage.
	mu     sync.Mutex
	repo   *git.Repository
	head   *object.Commit
	branch string
	name   string
	logger *zap.Logger
}

var _ digest.Provider = (*Repository)(nil)

// Open opens the repository containing dir.
func Open(dir string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", dir, digest.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dir, err)
	}

	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD in %s: %w", dir, err)
	}
	head, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("reading HEAD commit: %w", err)
	}

	branch := ref.Name().Short()
	if !ref.Name().IsBranch() {
		// Detached HEAD.
		branch = ref.Hash().String()[:12]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	return &Repository{
		repo:   repo,
		head:   head,
		branch: branch,
		name:   filepath.Base(abs),
		logger: logger,
	}, nil
}

// Repo identifies the clone as local/<directory name> at its HEAD branch.
func (r *Repository) Repo() digest.Repo {
	return digest.Repo{Owner: "local", Name: r.name, Branch: r.branch}
}

// ResolveBranch returns HEAD's branch regardless of owner and name.
func (r *Repository) ResolveBranch(ctx context.Context, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.branch, nil
}

// ListFiles returns every blob in the HEAD tree.
func (r *Repository) ListFiles(ctx context.Context, _ digest.Repo) ([]digest.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tree, err := r.head.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading HEAD tree: %w", err)
	}

	var files []digest.File
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files = append(files, digest.File{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking HEAD tree: %w", err)
	}
	return files, nil
}

// FetchContent reads a blob from HEAD. Binary, oversized, non-UTF-8 or
// missing files are absent.
func (r *Repository) FetchContent(ctx context.Context, _ digest.Repo, file digest.File) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tree, err := r.head.Tree()
	if err != nil {
		return "", false
	}
	f, err := tree.File(file.Path)
	if err != nil {
		r.logger.Debug("blob not found", zap.String("path", file.Path), zap.Error(err))
		return "", false
	}
	if bin, err := f.IsBinary(); err != nil || bin {
		return "", false
	}

	rd, err := f.Reader()
	if err != nil {
		return "", false
	}
	defer rd.Close()

	data, err := io.ReadAll(io.LimitReader(rd, maxContentBytes+1))
	if err != nil || len(data) > maxContentBytes || !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// FetchRevision walks history from HEAD for commits touching path.
func (r *Repository) FetchRevision(ctx context.Context, _ digest.Repo, path string) (*digest.Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iter, err := r.repo.Log(&git.LogOptions{
		From:     r.head.Hash,
		FileName: &path,
	})
	if err != nil {
		return nil, fmt.Errorf("log for %s: %w", path, err)
	}
	defer iter.Close()

	rev := &digest.Revision{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rev.CommitCount == 0 {
			rev.LastCommit = c.Committer.When.UTC()
		}
		rev.CommitCount++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking log for %s: %w", path, err)
	}
	if rev.CommitCount == 0 {
		return nil, nil
	}
	return rev, nil
}
