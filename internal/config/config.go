// Package config loads client configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultAPIURL is used when SYNAPSE_API_URL is unset.
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	APIURL  string        `env:"SYNAPSE_API_URL" envDefault:"http://localhost:8000"`
	DBPath  string        `env:"SYNAPSE_DB"`
	Timeout time.Duration `env:"SYNAPSE_TIMEOUT" envDefault:"0s"`

	LogLevel string `env:"SYNAPSE_LOG_LEVEL" envDefault:"warn"`
	LogFile  string `env:"SYNAPSE_LOG_FILE"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid SYNAPSE_API_URL %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid SYNAPSE_API_URL %q: scheme must be http or https", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid SYNAPSE_TIMEOUT %s: must not be negative", c.Timeout)
	}
	return nil
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".synapse", "state.db")
}
