// Package config loads, validates and persists the pool client
// configuration from <NodeHome>/config/ppool_config.json.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configSubdir   = "config"
	configFileName = "ppool_config.json"

	// DatabasesSubdir is where SQLite files live under the node home.
	DatabasesSubdir = "databases"

	// defaultNodeDir is the node home directory under $HOME.
	defaultNodeDir = ".ppool"
)

//go:embed default_config.json
var defaultConfigJSON []byte

// FilePath returns the config file location under the given node home.
func FilePath(basePath string) string {
	return filepath.Join(basePath, configSubdir, configFileName)
}

// DefaultNodeHome resolves ~/.ppool, falling back to a relative directory
// when the home directory cannot be determined.
func DefaultNodeHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultNodeDir
	}
	return filepath.Join(home, defaultNodeDir)
}

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	// Set defaults for hydration config
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 30
	}
	if cfg.PollTimeoutSeconds == 0 {
		cfg.PollTimeoutSeconds = 8
	}
	if cfg.InitialFetchRetries == 0 {
		cfg.InitialFetchRetries = 5
	}
	if cfg.RetryBackoffSeconds == 0 {
		cfg.RetryBackoffSeconds = 1
	}
	if cfg.PollTimeoutSeconds > cfg.PollIntervalSeconds {
		return fmt.Errorf("poll timeout must not exceed the poll interval")
	}

	// Validate chain config
	if len(cfg.ChainRPCURLs) == 0 {
		cfg.ChainRPCURLs = []string{"ws://127.0.0.1:9944"}
	}

	// Set defaults for query server
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	// Set defaults for node home and database
	if cfg.NodeHome == "" {
		cfg.NodeHome = DefaultNodeHome()
	}
	if cfg.DatabaseDir == "" {
		cfg.DatabaseDir = filepath.Join(cfg.NodeHome, DatabasesSubdir)
	}
	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = "pool_data.db"
	}

	return nil
}

// Save writes the given config to <NodeHome>/config/ppool_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, configSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, configFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads, validates and returns the config from
// <basePath>/config/ppool_config.json, filling defaults in place.
func Load(basePath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(FilePath(basePath)))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON.
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid default config: %w", err)
	}
	return &cfg, nil
}
