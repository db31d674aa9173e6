package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all operational configuration. Session inputs (host,
// repository, credential) come from flags; this file carries the knobs
// that rarely change between runs.
type Config struct {
	SSH     SSHConfig     `mapstructure:"ssh"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Staging StagingConfig `mapstructure:"staging"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	History HistoryConfig `mapstructure:"history"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Log     LogConfig     `mapstructure:"log"`
}

// SSHConfig holds channel timeouts.
type SSHConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// RemoteConfig holds target-side paths.
type RemoteConfig struct {
	// Root is the directory under which application trees live.
	Root string `mapstructure:"root"`
}

// StagingConfig holds the local staging area for fetched repositories.
type StagingConfig struct {
	Dir string `mapstructure:"dir"`
}

// ProxyConfig holds nginx settings.
type ProxyConfig struct {
	FragmentDir string `mapstructure:"fragment_dir"`
}

// HistoryConfig holds the step-record database location.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// AuditConfig holds the append-only audit log location.
type AuditConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}

	v.SetDefault("ssh.connect_timeout", "10s")
	v.SetDefault("ssh.command_timeout", "5m")
	v.SetDefault("remote.root", "/srv/apps")
	v.SetDefault("staging.dir", home+"/.dockhand/staging")
	v.SetDefault("proxy.fragment_dir", "/etc/nginx/conf.d")
	v.SetDefault("history.dsn", home+"/.dockhand/history.db")
	v.SetDefault("audit.path", home+"/.dockhand/audit.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	v.SetEnvPrefix("DOCKHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
