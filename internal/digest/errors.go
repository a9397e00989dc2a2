package digest

import "errors"

// Provider errors.
var (
	// ErrRateLimited is returned when the remote provider throttles requests.
	// A rate limit on revision metadata aborts the whole digest.
	ErrRateLimited = errors.New("rate limited by repository provider")

	// ErrNotFound is returned when the repository or branch does not exist.
	ErrNotFound = errors.New("repository not found")
)

// Precondition errors.
var (
	// ErrEmptyRepository is returned by callers when the file inventory is empty.
	ErrEmptyRepository = errors.New("repository contains no files")
)
