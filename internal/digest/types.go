package digest

import (
	"context"
	"fmt"
	"time"
)

// File describes one blob in a repository tree.
type File struct {
	// Path is slash separated and relative to the repository root.
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Revision holds per-file commit metadata.
type Revision struct {
	LastCommit  time.Time `json:"last_commit"`
	CommitCount int       `json:"commit_count"`
}

// EnrichedFile is a candidate after fetching. Nil fields mean absent.
type EnrichedFile struct {
	File
	Content  *string   `json:"content,omitempty"`
	Revision *Revision `json:"revision,omitempty"`
}

// ScoredFile pairs a file with its relevance score.
type ScoredFile struct {
	File
	Score int `json:"score"`
}

// Repo identifies a repository revision.
type Repo struct {
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Branch string `json:"branch"`
}

// FullName returns "owner/name".
func (r Repo) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Source retrieves content and revision metadata for single files.
//
// FetchContent never fails; ok is false on any transport or decoding error.
// FetchRevision returns (nil, nil) when metadata is unavailable and an error
// wrapping ErrRateLimited when the provider throttles the request. Other
// errors are treated as absent metadata.
type Source interface {
	FetchContent(ctx context.Context, repo Repo, f File) (content string, ok bool)
	FetchRevision(ctx context.Context, repo Repo, path string) (*Revision, error)
}

// Lister resolves branches and lists repository files.
type Lister interface {
	ResolveBranch(ctx context.Context, owner, name string) (string, error)
	ListFiles(ctx context.Context, repo Repo) ([]File, error)
}

// Provider is a full repository backend.
type Provider interface {
	Lister
	Source
}

// Redactor scrubs sensitive values from file content before assembly.
type Redactor interface {
	Redact(content string) string
}

// RedactorFunc adapts a function to Redactor.
type RedactorFunc func(string) string

// Redact calls f(content).
func (f RedactorFunc) Redact(content string) string {
	return f(content)
}
