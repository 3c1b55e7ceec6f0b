package domain

import (
	"log/slog"
)

// Config carries the process-level settings for the workflow core.
type Config struct {
	DataDir string       `json:"data_dir" yaml:"data_dir"`
	Logger  *slog.Logger `json:"-" yaml:"-"`

	Runner RunnerConfig `json:"runner" yaml:"runner"`
}

type RunnerConfig struct {
	// MaxConcurrent bounds how many independent nodes may execute at
	// once within a single run. Zero means unbounded.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
}

func DefaultConfig() Config {
	return Config{
		Logger: slog.Default(),
		Runner: RunnerConfig{
			MaxConcurrent: 8,
		},
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Logger == nil {
		c.Logger = defaults.Logger
	}
	if c.Runner.MaxConcurrent < 0 {
		c.Runner.MaxConcurrent = 0
	}
}

func (c *Config) Validate() error {
	if c.Runner.MaxConcurrent < 0 {
		return NewConfigurationError("runner.max_concurrent cannot be negative", nil)
	}
	return nil
}
