// Package config loads the castchain server configuration.
//
// Values are layered, later layers winning: built-in defaults, the YAML file
// (with ${VAR} references expanded from the environment and the optional .env
// file), then environment variables. Command-line flags are applied by main.
// The .env file never overrides variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sanonone/castchain/internal/telemetry"
	"github.com/sanonone/castchain/pkg/core/oracle"
	"github.com/sanonone/castchain/pkg/core/pool"
	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/errs"
	"github.com/sanonone/castchain/pkg/tmdb"
)

// Config is the top-level structure of the configuration file.
type Config struct {
	HTTPAddr  string `yaml:"http_addr" env:"CASTCHAIN_HTTP_ADDR"`
	LogLevel  string `yaml:"log_level" env:"CASTCHAIN_LOG_LEVEL"`   // debug, info, warn, error
	LogFormat string `yaml:"log_format" env:"CASTCHAIN_LOG_FORMAT"` // text, json

	TMDb      tmdb.Config      `yaml:"tmdb"`
	Pool      pool.Config      `yaml:"pool"`
	Oracle    OracleConfig     `yaml:"oracle"`
	Selector  SelectorConfig   `yaml:"selector"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

type OracleConfig struct {
	// RecentWindow is the number of leading credits per actor whose casts are inspected.
	RecentWindow int `yaml:"recent_window" env:"ORACLE_RECENT_WINDOW"`
}

type SelectorConfig struct {
	InitialAttempts int `yaml:"initial_attempts" env:"SELECTOR_INITIAL_ATTEMPTS"`
	ReplayAttempts  int `yaml:"replay_attempts" env:"SELECTOR_REPLAY_ATTEMPTS"`
}

// DefaultConfig returns a configuration that only lacks the TMDb API key.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		TMDb:      tmdb.DefaultConfig(),
		Pool:      pool.DefaultConfig(),
		Oracle:    OracleConfig{RecentWindow: oracle.DefaultWindow},
		Selector: SelectorConfig{
			InitialAttempts: selector.InitialAttempts,
			ReplayAttempts:  selector.ReplayAttempts,
		},
	}
}

// Load builds the configuration from the YAML file at path and the
// environment. An empty path skips the file. dotenv names an optional .env
// file; a missing one is not an error.
func Load(path, dotenv string) (Config, error) {
	cfg := DefaultConfig()

	// 1. .env file, without overriding variables already set. Loaded first so
	// that ${VAR} references in the YAML file can see its values.
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("could not load env file '%s': %w", dotenv, err)
		}
	}

	// 2. YAML file
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read configuration file '%s': %w", path, err)
		}
		if err := decodeYAML(os.ExpandEnv(string(data)), &cfg); err != nil {
			return cfg, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
		}
	}

	// 3. Environment
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return cfg, nil
}

func decodeYAML(doc string, cfg *Config) error {
	decoder := yaml.NewDecoder(strings.NewReader(doc))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
// All failures are errs.ErrConfiguration.
func (c Config) Validate() error {
	if err := c.TMDb.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errs.Configuration("http_addr must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errs.Configuration(fmt.Sprintf("unknown log_format %q", c.LogFormat))
	}
	checks := []struct {
		name  string
		value int64
	}{
		{"pool.target_size", int64(c.Pool.TargetSize)},
		{"pool.max_pages", int64(c.Pool.MaxPages)},
		{"pool.ttl", int64(c.Pool.TTL)},
		{"oracle.recent_window", int64(c.Oracle.RecentWindow)},
		{"selector.initial_attempts", int64(c.Selector.InitialAttempts)},
		{"selector.replay_attempts", int64(c.Selector.ReplayAttempts)},
	}
	for _, ch := range checks {
		if ch.value <= 0 {
			return errs.Configuration(ch.name + " must be positive")
		}
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, errs.Configuration(fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	return l, nil
}
