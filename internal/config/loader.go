package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// sections lists the top-level keys environment variables may set.
var sections = map[string]bool{
	"server":    true,
	"github":    true,
	"llm":       true,
	"digest":    true,
	"logging":   true,
	"telemetry": true,
	"secrets":   true,
}

// envAliases maps well-known variable names onto config keys.
var envAliases = map[string]string{
	"NEBIUS_API_KEY":  "llm.api_key",
	"NEBIUS_API_BASE": "llm.base_url",
	"NEBIUS_MODEL":    "llm.model",
	"OPENAI_API_KEY":  "llm.api_key",
}

// Load reads configuration from a YAML file and then the environment.
//
// Precedence, highest first:
//  1. Environment variables (GITHUB_TOKEN, LLM_API_KEY, DIGEST_MAX_FILES, ...)
//  2. YAML config file
//  3. Default()
//
// An empty configPath means ~/.config/repodigest/config.yaml. A missing file
// is not an error. An existing file must be owner-only (0600 or 0400) and
// at most 1MB.
//
// Environment variables split on the first underscore:
//
//	GITHUB_TOKEN        -> github.token
//	DIGEST_MAX_FILES    -> digest.max_files
//	LLM_API_KEY         -> llm.api_key
//	NEBIUS_API_KEY      -> llm.api_key
//	NEBIUS_API_BASE     -> llm.base_url
//	NEBIUS_MODEL        -> llm.model
//
// The NEBIUS_* and OPENAI_API_KEY aliases lose to their LLM_* counterparts.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "repodigest", "config.yaml")
	}

	content, err := readConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Aliases load first so canonical LLM_* keys win when both are set.
	if err := k.Load(env.Provider("", ".", aliasKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment aliases: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name and drops variables
// outside known sections.
func envKey(s string) string {
	lower := strings.ToLower(s)
	section, field, ok := strings.Cut(lower, "_")
	if !ok || field == "" || !sections[section] {
		return ""
	}
	return section + "." + field
}

func aliasKey(s string) string {
	return envAliases[s]
}

// readConfigFile returns nil content when the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Validate through the open descriptor to avoid a TOCTOU race.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFile(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func validateConfigFile(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
