// Package config loads the application configuration from an optional YAML
// file and COSTSCOPE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"costscope/internal/checks"
	"costscope/internal/logging"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/costscope/config.yaml when present and must
// never be committed with real secrets.
type Config struct {
	Logging logging.Config `mapstructure:"logging"`
	AWS     AWSConfig      `mapstructure:"aws"`
	Azure   AzureConfig    `mapstructure:"azure"`
	Checks  ChecksConfig   `mapstructure:"checks"`
}

// AWSConfig holds AWS-specific defaults used when flags are not provided.
type AWSConfig struct {
	// DefaultProfile is used when no --profile flag is provided.
	DefaultProfile string `mapstructure:"default_profile"`

	// DefaultRegion is used when no region flag or profile region is set.
	DefaultRegion string `mapstructure:"default_region"`
}

// AzureConfig holds Azure connection defaults.
type AzureConfig struct {
	// SubscriptionID selects the subscription to analyze.
	SubscriptionID string `mapstructure:"subscription_id"`

	// TenantID is optional; the Azure CLI credential resolves it when empty.
	TenantID string `mapstructure:"tenant_id"`

	// DefaultRegion is used when no region flag is set.
	DefaultRegion string `mapstructure:"default_region"`
}

// ChecksConfig tunes check execution.
type ChecksConfig struct {
	// Concurrency caps per-resource provider calls within a single check.
	Concurrency int `mapstructure:"concurrency"`

	// Thresholds override per-check defaults. Zero values keep defaults.
	Thresholds checks.Thresholds `mapstructure:"thresholds"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		AWS:     AWSConfig{DefaultRegion: "us-east-1"},
		Azure:   AzureConfig{DefaultRegion: "eastus"},
		Checks:  ChecksConfig{Concurrency: 4},
	}
}

// ConfigPath returns the default configuration file location.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "costscope", "config.yaml"), nil
}

// Load reads configuration from path, falling back to the default location
// when path is empty. A missing default file is not an error; defaults and
// environment variables still apply. Environment variables use the
// COSTSCOPE_ prefix with underscores, e.g. COSTSCOPE_AWS_DEFAULT_REGION.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("aws.default_region", defaults.AWS.DefaultRegion)
	v.SetDefault("azure.default_region", defaults.Azure.DefaultRegion)
	v.SetDefault("checks.concurrency", defaults.Checks.Concurrency)

	v.SetEnvPrefix("COSTSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		defaultPath, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
