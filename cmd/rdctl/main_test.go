package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/fyrsmithlabs/repodigest/internal/http"
)

// isolate points HOME at an empty directory so no user config is read.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("NEBIUS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	isolate(t)

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

// fakeServer answers like a repodigest server.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, httpapi.HealthResponse{Status: "ok", Version: "1.2.3"})
	})
	mux.HandleFunc("POST /summarize", func(w http.ResponseWriter, r *http.Request) {
		var req httpapi.AnalyzeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.GitHubURL != "https://github.com/psf/requests" {
			writeTestJSON(w, http.StatusNotFound, httpapi.ErrorResponse{Status: "error", Message: "Repository not found."})
			return
		}
		writeTestJSON(w, http.StatusOK, httpapi.SummaryResponse{
			Summary:      "Requests is an HTTP library.",
			Technologies: []string{"Python", "urllib3"},
			Structure:    "Package under src/requests.",
		})
	})
	mux.HandleFunc("POST /api/v1/digest", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, httpapi.DigestResponse{
			Repository: "psf/requests",
			Branch:     "main",
			Digest:     "## Directory Structure\n```\nREADME.md\n```\n",
			Chars:      38,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"summarize", "digest", "health"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
			assert.NotEmpty(t, cmd.Short)
			assert.NotEmpty(t, cmd.Long)
		})
	}
}

func TestHealthCmd(t *testing.T) {
	srv := fakeServer(t)

	out, _, err := execute(t, "health", "--server", srv.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "Server Status: ok")
	assert.Contains(t, out, "Version: 1.2.3")
}

func TestHealthCmd_Unreachable(t *testing.T) {
	srv := fakeServer(t)
	srv.Close()

	_, _, err := execute(t, "health", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestSummarizeCmd(t *testing.T) {
	srv := fakeServer(t)

	t.Run("text output", func(t *testing.T) {
		out, _, err := execute(t, "summarize", "--server", srv.URL, "https://github.com/psf/requests")
		require.NoError(t, err)
		assert.Contains(t, out, "Summary:\nRequests is an HTTP library.")
		assert.Contains(t, out, "Technologies: Python, urllib3")
		assert.Contains(t, out, "Structure:\nPackage under src/requests.")
	})

	t.Run("json output", func(t *testing.T) {
		out, _, err := execute(t, "summarize", "--json", "--server", srv.URL, "https://github.com/psf/requests")
		require.NoError(t, err)

		var resp httpapi.SummaryResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, []string{"Python", "urllib3"}, resp.Technologies)
	})

	t.Run("server error", func(t *testing.T) {
		_, _, err := execute(t, "summarize", "--server", srv.URL, "https://github.com/a/missing")
		require.Error(t, err)

		var se *serverError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.Status)
		assert.Equal(t, "Repository not found.", se.Message)
	})

	t.Run("requires a url", func(t *testing.T) {
		_, _, err := execute(t, "summarize", "--server", srv.URL)
		require.Error(t, err)
	})
}

func TestDigestCmd_Remote(t *testing.T) {
	srv := fakeServer(t)

	out, errOut, err := execute(t, "digest", "--remote", "--server", srv.URL, "https://github.com/psf/requests")
	require.NoError(t, err)
	assert.Equal(t, "## Directory Structure\n```\nREADME.md\n```\n", out)
	assert.Contains(t, errOut, "[rdctl] psf/requests@main: 38 chars")
}

func TestDigestCmd_Local(t *testing.T) {
	dir := newTestRepo(t)

	t.Run("text output", func(t *testing.T) {
		out, errOut, err := execute(t, "digest", "--local", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "## Directory Structure")
		assert.Contains(t, out, "## File: README.md\nLast commit: 2024-03-05T12:30:00Z\nCommits: 1\n")
		assert.Contains(t, out, "## File: go.mod")
		assert.Contains(t, errOut, "[rdctl] local/"+filepath.Base(dir)+"@master")
	})

	t.Run("json output respects max-chars", func(t *testing.T) {
		out, _, err := execute(t, "digest", "--local", dir, "--json", "--max-chars", "60")
		require.NoError(t, err)

		var resp httpapi.DigestResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "master", resp.Branch)
		assert.LessOrEqual(t, resp.Chars, 60)
		assert.Equal(t, len([]rune(resp.Digest)), resp.Chars)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, _, err := execute(t, "digest", "--local", t.TempDir())
		require.Error(t, err)
	})
}

func TestDigestCmd_Args(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no url", args: []string{"digest"}},
		{name: "local with url", args: []string{"digest", "--local", ".", "https://github.com/a/b"}},
		{name: "local with remote", args: []string{"digest", "--local", ".", "--remote"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}

// newTestRepo creates a clone with a README and a go.mod in one commit.
func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	files := map[string]string{
		"README.md": "# Demo\n\nA demo module.\n",
		"go.mod":    "module example.com/demo\n\ngo 1.24\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	when := time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC)
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when}
	_, err = wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return dir
}
