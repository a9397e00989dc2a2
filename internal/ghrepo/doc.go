// Package ghrepo reads public GitHub repositories for digest building.
//
// Client implements digest.Provider on top of go-github: it resolves the
// default branch, lists every blob of a branch recursively, downloads raw file
// content from raw.githubusercontent.com and looks up per-file commit history.
//
// Branch resolution and tree listing retry transient failures with
// exponential backoff. Rate limits are never retried; they surface as
// digest.ErrRateLimited so the caller can fail the request.
package ghrepo
