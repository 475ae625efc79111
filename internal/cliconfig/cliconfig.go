// Package cliconfig reads the command line client's TOML settings file.
package cliconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const fileName = "config.toml"

type Config struct {
	API struct {
		// Endpoint is the full URL of the action route, e.g. https://host/exec.
		Endpoint       string `toml:"endpoint"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"api"`

	State struct {
		Dir string `toml:"dir"`
	} `toml:"state"`
}

// Dir is where the client keeps its settings, $XDG_CONFIG_HOME/manrura or the platform
// equivalent.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "manrura"), nil
}

// DefaultPath is the settings file inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func (c *Config) applyDefaults(path string) {
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.State.Dir == "" {
		c.State.Dir = filepath.Join(filepath.Dir(path), "state")
	}
}

// Timeout is the per-request timeout for the remote API.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Load reads path. A missing file is not an error: the defaults are returned with an empty
// endpoint, which the remote client reports as unconfigured.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg.applyDefaults(path)
	return &cfg, nil
}

// Save writes cfg to path, creating the directory when needed.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
