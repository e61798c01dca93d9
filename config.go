package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"griddiff/text"

	"github.com/BurntSushi/toml"
)

// configEnvVar holds a JSON config that overrides the config file
const configEnvVar = "GRIDDIFF_CONFIG"

type Config struct {
	LogLevel      string `json:"log_level" toml:"log_level"` // trace, debug, info, warn, error
	LogFile       string `json:"log_file" toml:"log_file"`   // empty logs to stderr
	DiffTimeoutMs int    `json:"diff_timeout_ms" toml:"diff_timeout_ms"`
	Color         bool   `json:"color" toml:"color"`
	MaxLines      int    `json:"max_lines" toml:"max_lines"` // stop streamed input after this many lines (0 = no limit)

	// OpenAI-compatible completion server used by `stream --url`
	ProviderURL   string `json:"provider_url" toml:"provider_url"`
	ProviderModel string `json:"provider_model" toml:"provider_model"`
	APIKey        string `json:"api_key" toml:"api_key"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:      "info",
		DiffTimeoutMs: 1000,
		Color:         true,
	}
}

// loadConfig layers defaults, the optional TOML file at path, then the JSON in
// GRIDDIFF_CONFIG.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if raw := os.Getenv(configEnvVar); raw != "" {
		if err := json.Unmarshal([]byte(raw), &config); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", configEnvVar, err)
		}
	}

	if config.DiffTimeoutMs < 0 {
		return Config{}, fmt.Errorf("diff_timeout_ms must not be negative, got %d", config.DiffTimeoutMs)
	}
	if config.MaxLines < 0 {
		return Config{}, fmt.Errorf("max_lines must not be negative, got %d", config.MaxLines)
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return config, nil
}

// DiffOptions maps the config onto alignment options. A zero timeout means no deadline.
func (c Config) DiffOptions() text.DiffOptions {
	return text.DiffOptions{Timeout: time.Duration(c.DiffTimeoutMs) * time.Millisecond}
}
