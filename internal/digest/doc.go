// Package digest assembles a bounded-size text digest of a repository.
//
// Given a flat inventory of files (path and byte size) the package filters out
// noise such as build output, binaries, lockfiles and vendored code, ranks the
// survivors by a heuristic relevance score, renders a directory overview that
// degrades into a statistical summary for very large trees, fetches content and
// revision metadata for the top candidates under bounded concurrency, and packs
// everything into a single document under a hard character budget.
//
// # Output
//
// The digest always starts with a directory section followed by zero or more
// file sections in descending score order:
//
//	## Directory Structure
//	```
//	README.md
//	src/
//	  main.py
//	```
//
//	## File: README.md
//	Last commit: 2024-05-01T12:00:00Z
//	Commits: 12
//	```
//	# project
//	```
//
// The document never exceeds AssembleOptions.MaxChars characters (runes).
//
// # Usage
//
//	b := digest.NewBuilder(source, digest.DefaultOptions(), digest.WithLogger(logger))
//	text, err := b.BuildContext(ctx, digest.Repo{Owner: "o", Name: "r", Branch: "main"}, files)
//	if errors.Is(err, digest.ErrRateLimited) {
//	    // the whole request failed; no partial digest is returned
//	}
package digest
