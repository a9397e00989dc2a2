package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/repodigest/internal/analyzer"
	"github.com/fyrsmithlabs/repodigest/internal/gitlocal"
	httpapi "github.com/fyrsmithlabs/repodigest/internal/http"
	"github.com/fyrsmithlabs/repodigest/internal/services"
)

func newSummarizeCmd(opts *options) *cobra.Command {
	var (
		asJSON  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "summarize <github-url>",
		Short: "Summarize a GitHub repository via the server",
		Long: `Ask a running repodigest server to summarize a public GitHub repository.

Examples:
  # Summarize a repository
  rdctl summarize https://github.com/psf/requests

  # Print the raw JSON response
  rdctl summarize --json https://github.com/psf/requests

  # Use a different server
  rdctl summarize --server http://localhost:9000 https://github.com/psf/requests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts.serverURL, timeout)
			resp, err := c.summarize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			writeSummary(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON response")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "request timeout")
	return cmd
}

func newDigestCmd(opts *options) *cobra.Command {
	var (
		local    string
		remote   bool
		asJSON   bool
		maxChars int
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "digest [github-url]",
		Short: "Print the context digest for a repository",
		Long: `Build the size-bounded context digest that repodigest sends to the model:
the directory tree followed by the most relevant files.

The digest is built in-process from the GitHub API unless --remote asks the
server for it. --local builds it from a local clone instead.

Examples:
  # Digest a GitHub repository
  rdctl digest https://github.com/psf/requests

  # Digest the clone in the current directory
  rdctl digest --local .

  # Ask the server instead
  rdctl digest --remote https://github.com/psf/requests`,
		Args: func(cmd *cobra.Command, args []string) error {
			if local != "" {
				if remote {
					return errors.New("--local and --remote are mutually exclusive")
				}
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var (
				resp *httpapi.DigestResponse
				err  error
			)
			if remote {
				resp, err = newClient(opts.serverURL, timeout).digest(ctx, args[0])
			} else {
				var url string
				if len(args) > 0 {
					url = args[0]
				}
				resp, err = buildDigest(ctx, opts, local, url, maxChars)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprint(cmd.OutOrStdout(), resp.Digest)
			fmt.Fprintf(cmd.ErrOrStderr(), "[rdctl] %s@%s: %d chars\n", resp.Repository, resp.Branch, resp.Chars)
			return nil
		},
	}

	cmd.Flags().StringVar(&local, "local", "", "digest the git clone at this path")
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server for the digest")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the digest as JSON")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "digest size limit (default digest.max_chars from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	return cmd
}

// buildDigest builds a digest in-process, from a local clone when dir is set
// and from GitHub otherwise.
func buildDigest(ctx context.Context, opts *options, dir, githubURL string, maxChars int) (*httpapi.DigestResponse, error) {
	logger, err := opts.logger()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg := *opts.cfg
	if maxChars > 0 {
		cfg.Digest.MaxChars = maxChars
	}

	svcOpts := services.Options{Logger: logger}
	var clone *gitlocal.Repository
	if dir != "" {
		clone, err = gitlocal.Open(dir, logger.Named("git"))
		if err != nil {
			return nil, err
		}
		svcOpts.Provider = clone
	}

	reg, err := services.New(ctx, &cfg, svcOpts)
	if err != nil {
		return nil, err
	}

	var res *analyzer.DigestResult
	if clone != nil {
		res, err = reg.Analyzer().DigestRepo(ctx, clone.Repo())
	} else {
		res, err = reg.Analyzer().Digest(ctx, githubURL)
	}
	if err != nil {
		return nil, err
	}
	return &httpapi.DigestResponse{
		Repository: res.Repository,
		Branch:     res.Branch,
		Digest:     res.Digest,
		Chars:      res.Chars,
	}, nil
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check repodigest server health",
		Long: `Check the health status of the repodigest HTTP server.

Examples:
  # Check health
  rdctl health

  # Check health on a different server
  rdctl health --server http://localhost:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(opts.serverURL, 5*time.Second).health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", resp.Status)
			if resp.Version != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", resp.Version)
			}
			return nil
		},
	}
}

func writeSummary(w io.Writer, s *httpapi.SummaryResponse) {
	fmt.Fprintf(w, "Summary:\n%s\n\n", s.Summary)
	fmt.Fprintf(w, "Technologies: %s\n\n", strings.Join(s.Technologies, ", "))
	fmt.Fprintf(w, "Structure:\n%s\n", s.Structure)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
