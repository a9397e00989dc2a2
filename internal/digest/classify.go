package digest

import (
	"path"
	"strings"
)

// Classifier decides whether a file is noise that should never reach the digest.
type Classifier struct {
	rules Rules
}

// NewClassifier returns a Classifier over the given rules.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// ShouldExclude reports whether the file at p with the given size is excluded.
// Empty paths are always excluded.
func (c *Classifier) ShouldExclude(p string, size int64) bool {
	if p == "" {
		return true
	}
	if c.rules.MaxFileSize > 0 && size > c.rules.MaxFileSize {
		return true
	}
	for _, segment := range strings.Split(p, "/") {
		if c.rules.SkipDirs[segment] {
			return true
		}
	}
	lower := strings.ToLower(p)
	for _, suffix := range c.rules.SkipSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return c.rules.SkipFilenames[path.Base(p)]
}
