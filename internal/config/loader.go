package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/oi-clusters/internal/logger"
)

// Load reads a YAML config file and expands environment variables.
// An empty path, or a path that does not exist, yields an empty config.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Debugf("could not load .env: %v", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Infof("config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			// Expand ${VAR} environment variables
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parse config yaml: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv fills secrets and the port from the environment.
// POLYGON_API_KEY takes precedence over MASSIVE_API_KEY; both override the file.
func (c *Config) applyEnv() {
	for _, name := range []string{"MASSIVE_API_KEY", "POLYGON_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.Provider.APIKey = v
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}
