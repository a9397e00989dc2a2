package ghrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/repodigest/internal/config"
	"github.com/fyrsmithlabs/repodigest/internal/digest"
)

const (
	// DefaultRawBaseURL serves raw file content.
	DefaultRawBaseURL = "https://raw.githubusercontent.com/"

	// DefaultTimeout applies to every request.
	DefaultTimeout = 30 * time.Second

	// maxContentBytes bounds a single raw download.
	maxContentBytes = 2 << 20

	fallbackBranch = "main"
)

// Config configures a Client.
type Config struct {
	// Token is optional. Anonymous access is limited to 60 requests per hour.
	Token config.Secret

	// Timeout applies to each HTTP request. Default: 30s.
	Timeout time.Duration

	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string

	// RawBaseURL overrides the raw content endpoint.
	RawBaseURL string

	Retry *RetryConfig
}

// Client is a digest.Provider backed by the GitHub REST API.
type Client struct {
	gh      *github.Client
	rawBase *url.URL
	retry   *RetryConfig
	logger  *zap.Logger
}

var _ digest.Provider = (*Client)(nil)

// NewClient creates a GitHub client. The token, if set, authenticates both API
// and raw content requests.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := &http.Client{Timeout: timeout}
	if cfg.Token.IsSet() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
		hc = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, hc), ts)
		hc.Timeout = timeout
	}
	gh := github.NewClient(hc)

	if cfg.BaseURL != "" {
		u, err := parseBaseURL(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		gh.BaseURL = u
	}

	rawBase := cfg.RawBaseURL
	if rawBase == "" {
		rawBase = DefaultRawBaseURL
	}
	raw, err := parseBaseURL(rawBase)
	if err != nil {
		return nil, fmt.Errorf("invalid raw content URL: %w", err)
	}

	retry := cfg.Retry
	if retry == nil {
		retry = DefaultRetryConfig()
	}

	return &Client{
		gh:      gh,
		rawBase: raw,
		retry:   retry,
		logger:  logger,
	}, nil
}

func parseBaseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", s)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// ResolveBranch returns the repository's default branch.
func (c *Client) ResolveBranch(ctx context.Context, owner, name string) (string, error) {
	var repo *github.Repository
	resp, err := retryGitHubOperation(ctx, c.retry, c.logger, func() (*github.Response, error) {
		r, resp, err := c.gh.Repositories.Get(ctx, owner, name)
		repo = r
		return resp, err
	})
	if err != nil {
		return "", mapError(fmt.Sprintf("get repository %s/%s", owner, name), err, resp)
	}
	if branch := repo.GetDefaultBranch(); branch != "" {
		return branch, nil
	}
	return fallbackBranch, nil
}

// ListFiles lists every blob on repo.Branch.
func (c *Client) ListFiles(ctx context.Context, repo digest.Repo) ([]digest.File, error) {
	var tree *github.Tree
	resp, err := retryGitHubOperation(ctx, c.retry, c.logger, func() (*github.Response, error) {
		t, resp, err := c.gh.Git.GetTree(ctx, repo.Owner, repo.Name, repo.Branch, true)
		tree = t
		return resp, err
	})
	if err != nil {
		return nil, mapError(fmt.Sprintf("list tree %s@%s", repo.FullName(), repo.Branch), err, resp)
	}

	if tree.GetTruncated() {
		c.logger.Warn("GitHub tree listing truncated",
			zap.String("repository", repo.FullName()),
			zap.String("branch", repo.Branch),
			zap.Int("entries", len(tree.Entries)))
	}

	files := make([]digest.File, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		files = append(files, digest.File{Path: entry.GetPath(), Size: int64(entry.GetSize())})
	}
	return files, nil
}

// FetchContent downloads the raw content of f. It reports false on any
// failure, including non-UTF-8 content.
func (c *Client) FetchContent(ctx context.Context, repo digest.Repo, f digest.File) (string, bool) {
	u := c.rawBase.JoinPath(repo.Owner, repo.Name, repo.Branch, f.Path)
	req, err := c.gh.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.gh.BareDo(ctx, req)
	if resp != nil && resp.Response != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		c.logger.Debug("raw content fetch failed",
			zap.String("path", f.Path),
			zap.Int("status_code", getStatusCode(resp)),
			zap.Error(err))
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil || !utf8.Valid(body) {
		return "", false
	}
	return string(body), true
}

// FetchRevision returns the newest commit time and the number of commits
// touching path on repo.Branch.
func (c *Client) FetchRevision(ctx context.Context, repo digest.Repo, path string) (*digest.Revision, error) {
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, repo.Owner, repo.Name, &github.CommitsListOptions{
		SHA:         repo.Branch,
		Path:        path,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, mapError("list commits for "+path, err, resp)
	}
	if len(commits) == 0 {
		return nil, nil
	}

	commit := commits[0].GetCommit()
	date := commit.GetCommitter().GetDate().Time
	if date.IsZero() {
		date = commit.GetAuthor().GetDate().Time
	}

	// With one commit per page the last page number is the commit count.
	count := resp.LastPage
	if count == 0 {
		count = len(commits)
	}
	return &digest.Revision{LastCommit: date, CommitCount: count}, nil
}

// mapError wraps err with the digest sentinel matching the failure.
func mapError(op string, err error, resp *github.Response) error {
	switch {
	case isRateLimited(err, resp):
		return fmt.Errorf("%s: %w: %v", op, digest.ErrRateLimited, err)
	case getStatusCode(resp) == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, digest.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isRateLimited reports whether err or resp indicate primary or secondary
// rate limiting.
func isRateLimited(err error, resp *github.Response) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	return isRateLimitError(resp)
}
