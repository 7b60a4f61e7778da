// Package config loads the server configuration.
//
// Sources, in order of precedence: environment variables (SFTPC_*), a YAML
// configuration file, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/api"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/sftpd"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// Config is the full server configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging logger.Config `mapstructure:"logging" yaml:"logging"`

	// SFTP configures the SSH listener and the shared root.
	SFTP sftpd.Config `mapstructure:"sftp" yaml:"sftp"`

	// Database configures the persistent store for users and telemetry.
	Database store.Config `mapstructure:"database" yaml:"database"`

	// API configures the admin HTTP surface.
	API api.Config `mapstructure:"api" yaml:"api"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Admin is the default admin user seeded at first start.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`

	// ShutdownTimeout caps graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// MetricsConfig contains Prometheus metrics server configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
	Port    int    `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// Addr returns the host:port the metrics endpoint binds to.
func (c *MetricsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// AdminConfig describes the admin user seeded when the store is empty.
type AdminConfig struct {
	Username string `mapstructure:"username" yaml:"username" validate:"required"`
	Password string `mapstructure:"password" yaml:"password" validate:"required"`
}

// Load reads the configuration from configPath (or the default location when
// empty), applies environment overrides and defaults, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if found {
		if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(v, &cfg)
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the SFTPC_ prefix with underscores.
	// Example: SFTPC_SFTP_PORT=2200
	v.SetEnvPrefix("SFTPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// applyEnvOverrides binds the environment keys viper only resolves through
// explicit lookups when no config file supplied them.
func applyEnvOverrides(v *viper.Viper, cfg *Config) {
	set := func(key string, apply func(string)) {
		if val := v.GetString(key); val != "" {
			apply(val)
		}
	}
	set("logging.level", func(s string) { cfg.Logging.Level = s })
	set("logging.format", func(s string) { cfg.Logging.Format = s })
	set("sftp.root", func(s string) { cfg.SFTP.Root = s })
	set("sftp.host_key", func(s string) { cfg.SFTP.HostKeyPath = s })
	if v.IsSet("sftp.port") && v.GetInt("sftp.port") != 0 {
		cfg.SFTP.Port = v.GetInt("sftp.port")
	}
	set("database.type", func(s string) { cfg.Database.Type = store.DatabaseType(s) })
	set("database.sqlite.path", func(s string) { cfg.Database.SQLite.Path = s })
	set("api.jwt.secret", func(s string) { cfg.API.JWT.Secret = s })
	set("admin.username", func(s string) { cfg.Admin.Username = s })
	set("admin.password", func(s string) { cfg.Admin.Password = s })
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts config values like "30s" or "12h" into
// time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// ConfigDir returns the directory holding the config file and generated
// state (host key, SQLite database).
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sftp-connector")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sftp-connector")
}

// DefaultConfigPath is where Load looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
