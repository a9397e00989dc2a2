package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/repodigest/internal/config"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.tokenfactory.nebius.com/v1/"
	DefaultModel       = "meta-llama/Meta-Llama-3.1-8B-Instruct"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 4096
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 2
	defaultBaseBackoff = time.Second
)

// Summary is the structured analysis returned by the model.
type Summary struct {
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// Config configures a Client.
type Config struct {
	APIKey      config.Secret
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// RequestsPerMinute throttles calls. Zero disables throttling.
	RequestsPerMinute int
	MaxRetries        int
	BaseBackoff       time.Duration
	HTTPClient        *http.Client
}

// FromSettings builds a Config from the llm section of the service
// configuration.
func FromSettings(s config.LLMConfig) Config {
	return Config{
		APIKey:            s.APIKey,
		BaseURL:           s.BaseURL,
		Model:             s.Model,
		Temperature:       s.Temperature,
		MaxTokens:         s.MaxTokens,
		Timeout:           s.Timeout.Duration(),
		RequestsPerMinute: s.RequestsPerMinute,
	}
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = defaultBaseBackoff
	}
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	model   llms.Model
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Client. A missing API key returns ErrMissingAPIKey.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, ErrMissingAPIKey
	}
	cfg.applyDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating client: %v", ErrLLM, err)
	}
	return newClient(model, cfg, logger), nil
}

func newClient(model llms.Model, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}
	return &Client{
		model:   model,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Summarize asks the model for a structured summary of req.
func (c *Client) Summarize(ctx context.Context, req Request) (*Summary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrLLM, err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt(req)),
	}
	opts := []llms.CallOption{
		llms.WithTemperature(c.cfg.Temperature),
		llms.WithMaxTokens(c.cfg.MaxTokens),
		llms.WithJSONMode(),
		// OpenAI-compatible providers accept max_tokens, not max_completion_tokens.
		openai.WithLegacyMaxTokensField(),
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Warn("retrying llm request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrLLM, ctx.Err())
			}
		}

		start := time.Now()
		resp, err := c.model.GenerateContent(ctx, messages, opts...)
		if err == nil {
			c.logger.Debug("llm response received",
				zap.String("model", c.cfg.Model),
				zap.Duration("duration", time.Since(start)))
			return parseResponse(resp)
		}
		lastErr = err
		if !isRetryable(ctx, err) {
			break
		}
	}

	c.logger.Error("llm request failed", zap.String("model", c.cfg.Model), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %v", ErrLLM, lastErr)
}

func parseResponse(resp *llms.ContentResponse) (*Summary, error) {
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrLLM)
	}
	return ParseSummary(resp.Choices[0].Content)
}

// ParseSummary decodes a model reply, tolerating a surrounding code fence.
func ParseSummary(raw string) (*Summary, error) {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var s Summary
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON in response: %v", ErrLLM, err)
	}
	if s.Technologies == nil {
		s.Technologies = []string{}
	}
	return &s, nil
}

var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// isRetryable reports whether err is a rate limit, server error or network
// failure. Context errors never retry.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var llmErr *llms.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Code {
		case llms.ErrCodeRateLimit, llms.ErrCodeProviderUnavailable, llms.ErrCodeTimeout:
			return true
		}
		return false
	}

	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
