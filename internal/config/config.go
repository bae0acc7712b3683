// Package config loads the switchboard configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roelfdiedericks/switchboard/internal/llm"
)

// Config represents the merged switchboard configuration
type Config struct {
	Provider   ProviderConfig   `json:"provider"`
	Session    SessionConfig    `json:"session"`
	Compaction CompactionConfig `json:"compaction"`
	LogLevel   string           `json:"logLevel"`
}

// ProviderConfig selects the inference backend for a session.
type ProviderConfig struct {
	Kind    string `json:"kind"`    // "apikey", "openai", "ollama", "lmstudio", "oauth", "cloudshell"
	Model   string `json:"model"`   // starting model; empty uses the kind's weak default
	BaseURL string `json:"baseUrl"` // overrides the kind's default endpoint
	APIKey  string `json:"apiKey"`  // overrides the environment lookup
}

type SessionConfig struct {
	JournalPath string `json:"journalPath"` // empty disables the journal
	AutoSwitch  bool   `json:"autoSwitch"`
}

type CompactionConfig struct {
	KeepPercent int `json:"keepPercent"`
	MinMessages int `json:"minMessages"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".switchboard", "switchboard.json")
}

// Load reads configuration from path, applying defaults first. A
// missing file is not an error: defaults plus environment carry a
// usable setup.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Provider: ProviderConfig{
			Kind: string(llm.KindOllama),
		},
		LogLevel: "info",
	}

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if !llm.ProviderKind(cfg.Provider.Kind).Valid() {
		return nil, fmt.Errorf("unknown provider kind %q in %s", cfg.Provider.Kind, path)
	}

	return cfg, nil
}

// GeneratorConfig resolves the provider section into a base generator
// config, with file values overriding environment lookups.
func (c *Config) GeneratorConfig() llm.GeneratorConfig {
	kind := llm.ProviderKind(c.Provider.Kind)

	gen := llm.ResolveConfig(kind, c.Provider.Model)
	if c.Provider.BaseURL != "" {
		gen.BaseURL = c.Provider.BaseURL
	}
	if c.Provider.APIKey != "" {
		gen.APIKey = c.Provider.APIKey
	}
	return gen
}
