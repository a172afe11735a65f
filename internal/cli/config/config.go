package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const ConfigFileName = "ecocollect.json"

// Backend represents one EcoCollect backend deployment.
type Backend struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Config represents the project configuration file.
type Config struct {
	Backends []Backend `json:"backends"`
}

// DefaultConfig returns a starter configuration.
func DefaultConfig() *Config {
	return &Config{
		Backends: []Backend{
			{
				URL:   "",
				Alias: "e.g. production",
			},
		},
	}
}

// FindConfigFile searches for ecocollect.json in the current directory
// and parent directories.
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from the current directory or any
// parent directory.
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetBackendByAlias returns a backend by its alias.
func (c *Config) GetBackendByAlias(alias string) (*Backend, error) {
	for _, backend := range c.Backends {
		if backend.Alias == alias {
			return &backend, nil
		}
	}
	return nil, fmt.Errorf("backend with alias '%s' not found", alias)
}

// GetDefaultBackend returns the first backend in the list.
func (c *Config) GetDefaultBackend() (*Backend, error) {
	if len(c.Backends) == 0 {
		return nil, fmt.Errorf("no backends configured in %s", ConfigFileName)
	}
	return &c.Backends[0], nil
}
