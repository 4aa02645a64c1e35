// Package config loads ambioctl's configuration: the API origin and where
// session tokens are stored.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// userConfigDir is the per-user configuration directory, relative to
	// the home directory.
	userConfigDir = ".config/ambioctl"

	// configFileName is the main configuration file inside the config dir.
	configFileName = "config.yaml"
)

// APIURLEnvVar overrides the configured API origin.
const APIURLEnvVar = "AMBIO_API_URL"

// DefaultAPIURL is used when neither the config file nor the environment
// provides an origin.
const DefaultAPIURL = "http://localhost:3000"

// Config is the top-level configuration for ambioctl.
type Config struct {
	// APIURL is the origin of the Ambio REST API.
	APIURL string `yaml:"apiUrl,omitempty"`

	// TokenDir is the directory for the session token file. Defaults to
	// the config directory itself.
	TokenDir string `yaml:"tokenDir,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		APIURL: DefaultAPIURL,
	}
}

// DefaultConfigDir returns the per-user config directory, or an error when
// the home directory cannot be determined.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// Load reads configuration from the given directory, starting from the
// defaults. A missing config.yaml is not an error; a malformed one is.
// The AMBIO_API_URL environment variable overrides the file.
func Load(configDir string) (Config, error) {
	cfg := DefaultConfig()
	cfg.TokenDir = configDir

	configFilePath := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
		}
		slog.Debug("no config.yaml found, using defaults", "path", configFilePath)
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		slog.Debug("loaded configuration", "path", configFilePath)
	}

	if envURL := os.Getenv(APIURLEnvVar); envURL != "" {
		cfg.APIURL = envURL
	}
	if cfg.TokenDir == "" {
		cfg.TokenDir = configDir
	}

	return cfg, nil
}

// ConfigFilePath returns the path of config.yaml inside a config directory.
func ConfigFilePath(configDir string) string {
	return filepath.Join(configDir, configFileName)
}
