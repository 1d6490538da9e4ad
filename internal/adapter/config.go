package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds catalog service configuration
type ServerConfig struct {
	URL   string `mapstructure:"url"`   // Catalog service base URL
	Token string `mapstructure:"token"` // API token
}

// CacheConfig holds logo cache tunables
type CacheConfig struct {
	Dir            string        `mapstructure:"dir"`              // Snapshot directory; empty disables persistence
	BatchWindow    time.Duration `mapstructure:"batch_window"`     // By-id coalescing window
	RetryCooldown  time.Duration `mapstructure:"retry_cooldown"`   // Not-found retry cooldown
	ChunkSize      int           `mapstructure:"chunk_size"`       // Background populator chunk size
	WarmDelay      time.Duration `mapstructure:"warm_delay"`       // Delay before background warming starts
	SnapshotMaxAge time.Duration `mapstructure:"snapshot_max_age"` // Snapshot freshness bound
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{},
		Cache: CacheConfig{
			Dir:            defaultCachePath(),
			BatchWindow:    100 * time.Millisecond,
			RetryCooldown:  30 * time.Second,
			ChunkSize:      1000,
			WarmDelay:      3 * time.Second,
			SnapshotMaxAge: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "dispatcharr", "dispatcharr.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "dispatcharr", "dispatcharr.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "dispatcharr")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "dispatcharr")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "dispatcharr", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "dispatcharr", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("DISPATCHARR")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.token", cfg.Server.Token)

	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("cache.batch_window", cfg.Cache.BatchWindow)
	viper.Set("cache.retry_cooldown", cfg.Cache.RetryCooldown)
	viper.Set("cache.chunk_size", cfg.Cache.ChunkSize)
	viper.Set("cache.warm_delay", cfg.Cache.WarmDelay)
	viper.Set("cache.snapshot_max_age", cfg.Cache.SnapshotMaxAge)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// ClearServerConfig removes server credentials while preserving other
// settings. Used at logout.
func ClearServerConfig() error {
	viper.Set("server.url", "")
	viper.Set("server.token", "")

	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
