// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package config loads the service configuration. Precedence, lowest to
// highest: built-in defaults, a YAML config file, command-line flags, then
// the DATABASE_URL and OPENAI_API_KEY environment variables for secrets.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	AI       AIConfig       `koanf:"ai"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the API listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures PostgreSQL connectivity.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig configures session lifetimes and the session cookie.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	Sliding       bool          `koanf:"sliding"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	CookieName    string        `koanf:"cookie_name"`
	CookieSecure  bool          `koanf:"cookie_secure"`
}

// AIConfig configures the assistant backend.
type AIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
		Session: SessionConfig{
			TTL:           24 * time.Hour,
			Sliding:       false,
			SweepInterval: 10 * time.Minute,
			CookieName:    "accelerate_session",
		},
		AI: AIConfig{
			Model: "gpt-4o",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and the
// given flag set. path may be empty; a missing file at a non-empty path is an
// error so typos don't silently run on defaults.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	// Secrets come from the environment, never from flags or files committed
	// alongside the binary.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}

	return cfg, nil
}

// Validate checks that the configuration is usable for serving.
func (c Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")

	if c.Database.URL == "" {
		return errb.Errorf("database URL is required (set database.url or DATABASE_URL)")
	}
	if c.Session.TTL <= 0 {
		return errb.With("ttl", c.Session.TTL).Errorf("session TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errb.With("sweep_interval", c.Session.SweepInterval).Errorf("session sweep interval must be positive")
	}

	return nil
}
