// Package config loads service configuration from an optional YAML file,
// a .env file and BOOKSTORE_-prefixed environment variables, in that
// order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "BOOKSTORE_"

type Config struct {
	Server struct {
		Addr string `koanf:"addr"`
	} `koanf:"server"`

	Store struct {
		Backend string `koanf:"backend"`
		Path    string `koanf:"path"`
		DSN     string `koanf:"dsn"`
	} `koanf:"store"`

	Metrics struct {
		Enabled bool   `koanf:"enabled"`
		Token   string `koanf:"token"`
	} `koanf:"metrics"`

	RateLimit struct {
		Enabled bool `koanf:"enabled"`
		Limit   int  `koanf:"limit"`
		Window  int  `koanf:"window"`
	} `koanf:"ratelimit"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":      ":8080",
		"store.backend":    "file",
		"store.path":       "books.json",
		"metrics.enabled":  true,
		"ratelimit.limit":  60,
		"ratelimit.window": 60,
	}
}

// Load reads configuration. A missing YAML or .env file is fine; the
// defaults alone are a runnable configuration.
func Load(configFile string) (Config, error) {
	var cfg Config

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", configFile, err)
	}

	// .env values become process env vars so the env provider below
	// picks them up; real env vars still win.
	_ = godotenv.Load()

	transform := func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	if err := k.Load(env.Provider(envPrefix, ".", transform), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is not configured")
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the file backend")
		}
	case "memory":
	case "postgres":
		if !strings.HasPrefix(c.Store.DSN, "postgres://") && !strings.HasPrefix(c.Store.DSN, "postgresql://") {
			return fmt.Errorf("store.dsn must be a postgres:// URL for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend: %q", c.Store.Backend)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("ratelimit.limit and ratelimit.window must be positive")
	}
	return nil
}
