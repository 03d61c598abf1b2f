// Package config loads ddk's runtime configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a ddk invocation.
// Values are populated from .ddk.yaml, DDK_* env vars, and CLI flags.
type Config struct {
	ConfigDir          string        `mapstructure:"config_dir"`
	LockTimeout        time.Duration `mapstructure:"lock_timeout"`
	LockRetryInterval  time.Duration `mapstructure:"lock_retry_interval"`
	RebalanceThreshold int           `mapstructure:"rebalance_threshold"`
	Journal            bool          `mapstructure:"journal"`
	LogLevel           string        `mapstructure:"log_level"`
}

// JournalPath returns the location of the change-set journal.
func (c Config) JournalPath() string {
	return filepath.Join(c.ConfigDir, "journal.jsonl")
}

// DefaultConfigDir is the per-user directory holding the store files. It
// falls back to ".ddk" in the working directory when the platform reports no
// user configuration directory.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".ddk"
	}
	return filepath.Join(dir, "ddk")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("config_dir", DefaultConfigDir())
	viper.SetDefault("lock_timeout", 5*time.Second)
	viper.SetDefault("lock_retry_interval", 50*time.Millisecond)
	viper.SetDefault("rebalance_threshold", 48)
	viper.SetDefault("journal", true)
	viper.SetDefault("log_level", "info")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.LockTimeout <= 0 {
		return Config{}, fmt.Errorf("lock_timeout must be positive, got %s", cfg.LockTimeout)
	}
	if cfg.LockRetryInterval <= 0 {
		return Config{}, fmt.Errorf("lock_retry_interval must be positive, got %s", cfg.LockRetryInterval)
	}
	return cfg, nil
}
