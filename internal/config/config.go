// Package config loads repodigest configuration from a YAML file and the
// environment using koanf.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete repodigest configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	GitHub    GitHubConfig    `koanf:"github"`
	LLM       LLMConfig       `koanf:"llm"`
	Digest    DigestConfig    `koanf:"digest"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Secrets   SecretsConfig   `koanf:"secrets"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	BodyLimit       string   `koanf:"body_limit"`
	// ServerURL is where rdctl reaches a running server.
	ServerURL string `koanf:"url"`
}

// GitHubConfig holds GitHub API access settings.
type GitHubConfig struct {
	Token      Secret   `koanf:"token"`
	Timeout    Duration `koanf:"timeout"`
	BaseURL    string   `koanf:"base_url"`
	RawBaseURL string   `koanf:"raw_base_url"`
	MaxRetries int      `koanf:"max_retries"`
}

// LLMConfig holds the OpenAI-compatible summarizer settings.
type LLMConfig struct {
	APIKey      Secret   `koanf:"api_key"`
	BaseURL     string   `koanf:"base_url"`
	Model       string   `koanf:"model"`
	Temperature float64  `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`
	Timeout     Duration `koanf:"timeout"`
	// RequestsPerMinute throttles calls to the provider. Zero disables it.
	RequestsPerMinute int `koanf:"requests_per_minute"`
}

// DigestConfig holds context assembly limits.
type DigestConfig struct {
	MaxFiles     int `koanf:"max_files"`
	Concurrency  int `koanf:"concurrency"`
	MaxChars     int `koanf:"max_chars"`
	MaxFileChars int `koanf:"max_file_chars"`
	TreeMaxLines int `koanf:"tree_max_lines"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// SecretsConfig controls scrubbing of file content before assembly.
type SecretsConfig struct {
	Enabled  bool `koanf:"enabled"`
	Gitleaks bool `koanf:"gitleaks"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ShutdownTimeout: Duration(10 * time.Second),
			BodyLimit:       "64K",
			ServerURL:       "http://localhost:8000",
		},
		GitHub: GitHubConfig{
			Timeout:    Duration(30 * time.Second),
			BaseURL:    "https://api.github.com/",
			RawBaseURL: "https://raw.githubusercontent.com/",
			MaxRetries: 3,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.tokenfactory.nebius.com/v1/",
			Model:       "meta-llama/Meta-Llama-3.1-8B-Instruct",
			Temperature: 0.2,
			MaxTokens:   4096,
			Timeout:     Duration(60 * time.Second),
		},
		Digest: DigestConfig{
			MaxFiles:     40,
			Concurrency:  10,
			MaxChars:     80000,
			MaxFileChars: 15000,
			TreeMaxLines: 150,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			ServiceName: "repodigest",
			SampleRate:  1.0,
		},
		Secrets: SecretsConfig{
			Enabled: true,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	for name, raw := range map[string]string{
		"github.base_url":     c.GitHub.BaseURL,
		"github.raw_base_url": c.GitHub.RawBaseURL,
		"llm.base_url":        c.LLM.BaseURL,
	} {
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.GitHub.MaxRetries < 0 {
		errs = append(errs, errors.New("github.max_retries cannot be negative"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm.max_tokens must be positive"))
	}
	if c.LLM.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("llm.requests_per_minute cannot be negative"))
	}

	d := c.Digest
	if d.MaxFiles <= 0 || d.Concurrency <= 0 || d.MaxChars <= 0 || d.MaxFileChars <= 0 || d.TreeMaxLines <= 0 {
		errs = append(errs, errors.New("digest limits must be positive"))
	}
	if d.MaxFileChars > d.MaxChars {
		errs = append(errs, fmt.Errorf("digest.max_file_chars (%d) exceeds digest.max_chars (%d)", d.MaxFileChars, d.MaxChars))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}
	if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http" {
		errs = append(errs, fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got %q", c.Telemetry.Protocol))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.Telemetry.SampleRate))
	}
	if c.Secrets.Gitleaks && !c.Secrets.Enabled {
		errs = append(errs, errors.New("secrets.gitleaks requires secrets.enabled"))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required, got %q", raw)
	}
	return nil
}
