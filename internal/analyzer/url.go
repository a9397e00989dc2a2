package analyzer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned for anything that is not a github.com repository URL.
var ErrInvalidURL = errors.New("invalid GitHub repository URL")

var githubURLPattern = regexp.MustCompile(`^https?://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)

// ParseGitHubURL extracts owner and name from a URL of the form
// https://github.com/owner/name. Surrounding whitespace and one trailing slash
// are ignored.
func ParseGitHubURL(raw string) (owner, name string, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/")
	m := githubURLPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return m[1], m[2], nil
}
