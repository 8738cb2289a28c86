// Package config loads SignalDesk configuration from YAML with environment
// overrides and provides hot reload via a file watcher.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Gateway GatewayConfig `yaml:"gateway"`
	Chat    ChatConfig    `yaml:"chat"`
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig configures the generation backend.
type GatewayConfig struct {
	Provider string `yaml:"provider"` // rest, gemini
	BaseURL  string `yaml:"base_url"`
	Path     string `yaml:"path"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// ParseTimeout parses the configured timeout duration.
func (g GatewayConfig) ParseTimeout() (time.Duration, error) {
	if g.Timeout == "" {
		return 60 * time.Second, nil
	}
	return time.ParseDuration(g.Timeout)
}

// ChatConfig configures the turn loop.
type ChatConfig struct {
	// QueueSize bounds how many turns may wait while a dispatch is in
	// flight. Submissions beyond the bound are rejected rather than
	// interleaved.
	QueueSize int `yaml:"queue_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "SignalDesk",
		Version: "0.3.0",

		Gateway: GatewayConfig{
			Provider: "rest",
			BaseURL:  "http://localhost:3001",
			Path:     "/api/generate",
			Timeout:  "60s",
		},

		Chat: ChatConfig{
			QueueSize: 16,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, layers it over the defaults,
// and applies environment overrides. A missing file is not an error; the
// defaults (plus environment) apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override the file without
// editing it. Only the sensitive or per-host values are overridable.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SIGNALDESK_PROVIDER"); v != "" {
		c.Gateway.Provider = v
	}
	if v := os.Getenv("SIGNALDESK_BASE_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("SIGNALDESK_API_KEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("SIGNALDESK_MODEL"); v != "" {
		c.Gateway.Model = v
	}
	if v := os.Getenv("SIGNALDESK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
