package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reply = `{"summary":"A CLI that greets people.","technologies":["Go","Cobra"],"structure":"cmd holds the entrypoint."}`

// chatServer fakes an OpenAI-compatible endpoint. Each call pops the next
// handler; the last one repeats.
type chatServer struct {
	*httptest.Server
	calls atomic.Int32

	mu       sync.Mutex
	lastBody map[string]interface{}
	lastAuth string
}

func (cs *chatServer) last() (map[string]interface{}, string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastBody, cs.lastAuth
}

func newChatServer(t *testing.T, handlers ...func(w http.ResponseWriter)) *chatServer {
	t.Helper()
	cs := &chatServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		n := int(cs.calls.Add(1)) - 1
		if n >= len(handlers) {
			n = len(handlers) - 1
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		cs.mu.Lock()
		cs.lastBody, cs.lastAuth = body, r.Header.Get("Authorization")
		cs.mu.Unlock()
		handlers[n](w)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func completion(content string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   DefaultModel,
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20},
		})
		_, _ = w.Write(body)
	}
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		fmt.Fprintf(w, `{"error":{"message":"upstream said %d","type":"server_error"}}`, code)
	}
}

func newTestClient(t *testing.T, srv *chatServer) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1/",
		Temperature: DefaultTemperature,
		BaseBackoff: time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_Summarize(t *testing.T) {
	srv := newChatServer(t, completion(reply))
	c := newTestClient(t, srv)

	got, err := c.Summarize(context.Background(), Request{
		Repository: "octo/hello",
		Context:    "## File: README.md\n```\nhi\n```",
		Hints:      "Detected from manifests: go github.com/octo/hello",
	})
	require.NoError(t, err)

	assert.Equal(t, &Summary{
		Summary:      "A CLI that greets people.",
		Technologies: []string{"Go", "Cobra"},
		Structure:    "cmd holds the entrypoint.",
	}, got)

	body, auth := srv.last()
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, DefaultModel, body["model"])
	assert.InDelta(t, 0.2, body["temperature"], 1e-9)
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])

	messages := body["messages"].([]interface{})
	require.Len(t, messages, 2)
	user := fmt.Sprint(messages[1])
	assert.Contains(t, user, "Repository: octo/hello")
	assert.Contains(t, user, "Detected from manifests")
	assert.Contains(t, fmt.Sprint(messages[0]), "more recent last commit")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	srv := newChatServer(t, status(http.StatusBadGateway), status(http.StatusTooManyRequests), completion(reply))
	c := newTestClient(t, srv)

	got, err := c.Summarize(context.Background(), Request{Repository: "octo/hello"})
	require.NoError(t, err)
	assert.Equal(t, "A CLI that greets people.", got.Summary)
	assert.Equal(t, int32(3), srv.calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	srv := newChatServer(t, status(http.StatusBadRequest))
	c := newTestClient(t, srv)

	_, err := c.Summarize(context.Background(), Request{Repository: "octo/hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLM)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	srv := newChatServer(t, status(http.StatusServiceUnavailable))
	c := newTestClient(t, srv)

	_, err := c.Summarize(context.Background(), Request{Repository: "octo/hello"})
	assert.ErrorIs(t, err, ErrLLM)
	assert.Equal(t, int32(defaultMaxRetries+1), srv.calls.Load())
}

func TestClient_InvalidJSONReply(t *testing.T) {
	srv := newChatServer(t, completion("I think this repo is about greetings."))
	c := newTestClient(t, srv)

	_, err := c.Summarize(context.Background(), Request{Repository: "octo/hello"})
	assert.ErrorIs(t, err, ErrLLM)
}

func TestClient_CanceledContext(t *testing.T) {
	srv := newChatServer(t, completion(reply))
	c := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Summarize(ctx, Request{Repository: "octo/hello"})
	assert.ErrorIs(t, err, ErrLLM)
	assert.Equal(t, int32(0), srv.calls.Load())
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *Summary
		wantErr bool
	}{
		{"plain", reply, &Summary{"A CLI that greets people.", []string{"Go", "Cobra"}, "cmd holds the entrypoint."}, false},
		{"fenced", "```json\n" + reply + "\n```", &Summary{"A CLI that greets people.", []string{"Go", "Cobra"}, "cmd holds the entrypoint."}, false},
		{"missing technologies", `{"summary":"s","structure":"t"}`, &Summary{"s", []string{}, "t"}, false},
		{"prose", "not json", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSummary(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrLLM)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	ctx := context.Background()
	assert.True(t, isRetryable(ctx, errors.New("API returned unexpected status code: 503: busy")))
	assert.True(t, isRetryable(ctx, errors.New("API returned unexpected status code: 429")))
	assert.False(t, isRetryable(ctx, errors.New("API returned unexpected status code: 401: bad key")))
	assert.False(t, isRetryable(ctx, context.DeadlineExceeded))
	assert.False(t, isRetryable(ctx, errors.New("something else")))
}
