// Package config handles Mentor configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/mentor/config.yaml, /etc/mentor/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mentor", "config.yaml"))
	}

	paths = append(paths, "/etc/mentor/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Mentor configuration.
type Config struct {
	Backend  BackendConfig `yaml:"backend"`
	Listen   ListenConfig  `yaml:"listen"`
	Memory   MemoryConfig  `yaml:"memory"`
	Learner  LearnerConfig `yaml:"learner"`
	Safety   SafetyConfig  `yaml:"safety"`
	LogLevel string        `yaml:"log_level"`
}

// BackendConfig selects and configures the model backend.
type BackendConfig struct {
	// Provider is "gemini" or "ollama".
	Provider string `yaml:"provider"`
	// Model is the provider model name (e.g. gemini-pro-latest, qwen3:4b).
	Model string `yaml:"model"`
	// BaseURL overrides the provider endpoint; empty uses the default.
	BaseURL string `yaml:"base_url"`
	// APIKey is the Gemini key. The GEMINI_API_KEY environment variable
	// and the interactive prompt take precedence over this file.
	APIKey string `yaml:"api_key"`
}

// ListenConfig defines the API server settings for serve mode.
type ListenConfig struct {
	Address string `yaml:"address"` // bind address, "" = all interfaces
	Port    int    `yaml:"port"`
}

// MemoryConfig defines conversation memory settings.
type MemoryConfig struct {
	// MaxBuffer bounds the short-term conversation buffer (default 10).
	MaxBuffer int `yaml:"max_buffer"`
	// ArchivePath enables SQLite interaction persistence when set.
	ArchivePath string `yaml:"archive_path"`
}

// LearnerConfig seeds the learner profile for a new session.
type LearnerConfig struct {
	Name         string `yaml:"name"`
	TargetDomain string `yaml:"target_domain"`
	SkillLevel   int    `yaml:"skill_level"` // 1..5, default 1
}

// SafetyConfig extends the built-in classifier marker lists.
type SafetyConfig struct {
	ExtraDenylist  []string `yaml:"extra_denylist"`
	ExtraAllowlist []string `yaml:"extra_allowlist"`
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Provider: "gemini",
			Model:    "gemini-pro-latest",
		},
		Listen: ListenConfig{
			Port: 8590,
		},
		Memory: MemoryConfig{
			MaxBuffer: 10,
		},
		Learner: LearnerConfig{
			Name:         "Student",
			TargetDomain: "python",
			SkillLevel:   1,
		},
		LogLevel: "info",
	}
}

// Load reads and validates a config file, applying defaults for
// anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend.Provider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("unknown backend provider %q (valid: gemini, ollama)", c.Backend.Provider)
	}

	if c.Learner.SkillLevel < 1 || c.Learner.SkillLevel > 5 {
		return fmt.Errorf("learner skill_level %d out of range 1..5", c.Learner.SkillLevel)
	}

	if c.Memory.MaxBuffer < 1 {
		return fmt.Errorf("memory max_buffer must be positive, got %d", c.Memory.MaxBuffer)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
