package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httpapi "github.com/fyrsmithlabs/repodigest/internal/http"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// serverError is a non-2xx reply from the server.
type serverError struct {
	Status  int
	Message string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// client talks to a running repodigest server.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *client) summarize(ctx context.Context, githubURL string) (*httpapi.SummaryResponse, error) {
	var resp httpapi.SummaryResponse
	if err := c.post(ctx, "/summarize", httpapi.AnalyzeRequest{GitHubURL: githubURL}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) digest(ctx context.Context, githubURL string) (*httpapi.DigestResponse, error) {
	var resp httpapi.DigestResponse
	if err := c.post(ctx, "/api/v1/digest", httpapi.AnalyzeRequest{GitHubURL: githubURL}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) health(ctx context.Context) (*httpapi.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var resp httpapi.HealthResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return &serverError{Status: resp.StatusCode, Message: readErr.Error()}
		}
		var errResp httpapi.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return &serverError{Status: resp.StatusCode, Message: errResp.Message}
		}
		return &serverError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
