// Package config loads bridge configuration from TOML with environment
// overrides.
//
// Configuration resolves in three layers, lowest precedence first:
// built-in defaults, the TOML file, then GOREBRIDGE_* environment
// variables. A missing configuration file is not an error; defaults
// apply.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/gorebridge/internal/session"
)

// Config is the root configuration for the bridge.
type Config struct {
	REPL       REPLConfig       `toml:"repl"`
	Supervisor SupervisorConfig `toml:"supervisor"`
	Log        LogConfig        `toml:"log"`
}

// REPLConfig configures the external REPL subprocess.
type REPLConfig struct {
	// Program is the REPL executable.
	Program string `toml:"program"`

	// Args are the default launch flags.
	Args []string `toml:"args"`

	// Prompt is the regular expression matching one prompt token.
	Prompt string `toml:"prompt"`

	// ContextFile is loaded by the REPL at startup when set.
	ContextFile string `toml:"context_file"`

	// HistoryFile is the append-only command history file.
	HistoryFile string `toml:"history_file"`
}

// SupervisorConfig configures restart behavior.
type SupervisorConfig struct {
	// GracePeriodMS is the fixed delay between delivering the quit
	// directive and respawning, in milliseconds.
	GracePeriodMS int `toml:"grace_period_ms"`
}

// GracePeriod returns the grace period as a duration.
func (c SupervisorConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMS) * time.Millisecond
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		REPL: REPLConfig{
			Program: "gore",
			Args:    []string{"-autoimport"},
			Prompt:  `gore> `,
		},
		Supervisor: SupervisorConfig{
			GracePeriodMS: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, layering it over the defaults
// and applying environment overrides. A missing file yields defaults
// plus environment; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LaunchSpec converts the REPL configuration into a launch spec.
func (c Config) LaunchSpec() session.LaunchSpec {
	return session.LaunchSpec{
		Program:       c.REPL.Program,
		Args:          c.REPL.Args,
		ContextFile:   c.REPL.ContextFile,
		PromptPattern: c.REPL.Prompt,
		HistoryFile:   c.REPL.HistoryFile,
	}
}

// applyEnv overlays GOREBRIDGE_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("GOREBRIDGE_PROGRAM"); v != "" {
		c.REPL.Program = v
	}
	if v := os.Getenv("GOREBRIDGE_PROMPT"); v != "" {
		c.REPL.Prompt = v
	}
	if v := os.Getenv("GOREBRIDGE_CONTEXT_FILE"); v != "" {
		c.REPL.ContextFile = v
	}
	if v := os.Getenv("GOREBRIDGE_HISTORY_FILE"); v != "" {
		c.REPL.HistoryFile = v
	}
	if v := os.Getenv("GOREBRIDGE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GOREBRIDGE_GRACE_PERIOD_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Supervisor.GracePeriodMS = ms
		}
	}
}
