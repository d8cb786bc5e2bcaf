// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shinobi-auth.
//
// shinobi-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the wallet configuration from a YAML file with
// SHINOBI_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/shinobi-auth/pkg/passkey"
)

// Config represents the complete wallet configuration
type Config struct {
	Logging LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Storage StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Passkey passkey.Config `yaml:"passkey" mapstructure:"passkey"`
	Wallet  WalletConfig   `yaml:"wallet" mapstructure:"wallet"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Level is the log level: info or debug.
	Level string `yaml:"level" mapstructure:"level"`
}

// StorageConfig controls where encrypted account data lives
type StorageConfig struct {
	// Backend selects the storage implementation: file or memory.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Path is the data directory for the file backend.
	Path string `yaml:"path" mapstructure:"path"`
}

// WalletConfig configures the connected wallet provider
type WalletConfig struct {
	// Address is the wallet address the mock provider reports.
	Address string `yaml:"address" mapstructure:"address"`

	// ChainID is the chain the wallet is connected to.
	ChainID uint64 `yaml:"chain_id" mapstructure:"chain_id"`

	// Secret seeds the mock provider's deterministic signatures. Any
	// stable string works; changing it changes every derived key.
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for unset configuration fields.
func (c *Config) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultDataDir()
	}
	if c.Passkey.RPID == "" {
		c.Passkey.RPID = "shinobi.local"
	}
	if c.Passkey.RPDisplayName == "" {
		c.Passkey.RPDisplayName = "Shinobi Wallet"
	}
	c.Passkey.SetDefaults()
	if c.Wallet.Address == "" {
		c.Wallet.Address = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	}
	if c.Wallet.ChainID == 0 {
		c.Wallet.ChainID = 1
	}
	if c.Wallet.Secret == "" {
		c.Wallet.Secret = "shinobi-dev-wallet"
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "info", "debug":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	return c.Passkey.Validate()
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.Logging.Level == "debug"
}

// Load reads configuration from a YAML file and applies SHINOBI_*
// environment variable overrides. An empty path loads defaults plus
// environment overrides; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SHINOBI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults registered here so environment overrides bind even when
	// the key is absent from the file.
	defaults := New()
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("passkey.id", defaults.Passkey.RPID)
	v.SetDefault("passkey.display_name", defaults.Passkey.RPDisplayName)
	v.SetDefault("passkey.timeout", defaults.Passkey.Timeout)
	v.SetDefault("passkey.user_verification", defaults.Passkey.UserVerification)
	v.SetDefault("wallet.address", defaults.Wallet.Address)
	v.SetDefault("wallet.chain_id", defaults.Wallet.ChainID)
	v.SetDefault("wallet.secret", defaults.Wallet.Secret)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

func defaultDataDir() string {
	return filepath.Join(baseDir(), "data")
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shinobi"
	}
	return filepath.Join(home, ".shinobi")
}
