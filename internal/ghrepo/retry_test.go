package ghrepo

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWithStatus(code int) *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: code}}
}

func TestIsGitHubRetryableError(t *testing.T) {
	errAPI := errors.New("api error")

	tests := []struct {
		name string
		err  error
		resp *github.Response
		want bool
	}{
		{"nil error", nil, nil, false},
		{"network error", errAPI, nil, true},
		{"canceled", context.Canceled, nil, false},
		{"deadline", context.DeadlineExceeded, nil, false},
		{"500", errAPI, responseWithStatus(500), true},
		{"502", errAPI, responseWithStatus(502), true},
		{"503", errAPI, responseWithStatus(503), true},
		{"504", errAPI, responseWithStatus(504), true},
		{"400", errAPI, responseWithStatus(400), false},
		{"404", errAPI, responseWithStatus(404), false},
		{"422", errAPI, responseWithStatus(422), false},
		{"429 is a rate limit", errAPI, responseWithStatus(429), false},
		{"rate limit error", &github.RateLimitError{Message: "limit"}, nil, false},
		{"secondary rate limit", &github.AbuseRateLimitError{Message: "abuse"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isGitHubRetryableError(tt.err, tt.resp))
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, isRateLimitError(nil))
	assert.True(t, isRateLimitError(responseWithStatus(http.StatusTooManyRequests)))

	forbidden := responseWithStatus(http.StatusForbidden)
	assert.False(t, isRateLimitError(forbidden), "plain 403 is a permission error")

	forbidden.Rate = github.Rate{Limit: 60, Remaining: 0}
	assert.True(t, isRateLimitError(forbidden))

	forbidden.Rate = github.Rate{Limit: 60, Remaining: 10}
	assert.False(t, isRateLimitError(forbidden))
}

func TestRetryGitHubOperation(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	t.Run("exhausts retries", func(t *testing.T) {
		calls := 0
		_, err := retryGitHubOperation(context.Background(), cfg, nil, func() (*github.Response, error) {
			calls++
			return responseWithStatus(503), errors.New("unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 4, calls)
		assert.Contains(t, err.Error(), "after 3 retries")
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		_, err := retryGitHubOperation(context.Background(), cfg, nil, func() (*github.Response, error) {
			calls++
			return responseWithStatus(404), errors.New("not found")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := &RetryConfig{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}
		calls := 0
		_, err := retryGitHubOperation(ctx, slow, nil, func() (*github.Response, error) {
			calls++
			cancel()
			return nil, errors.New("connection reset")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("does not mutate caller config", func(t *testing.T) {
		partial := &RetryConfig{MaxRetries: 1}
		_, _ = retryGitHubOperation(context.Background(), partial, nil, func() (*github.Response, error) {
			return nil, nil
		})
		assert.Zero(t, partial.InitialBackoff)
	})
}
