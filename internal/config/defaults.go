package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/api"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/sftpd"
)

const (
	// DefaultSFTPPort is the listener port when none is configured.
	DefaultSFTPPort = 2222

	// DefaultAPIPort is the admin API port when none is configured.
	DefaultAPIPort = 8080

	// DefaultMetricsPort is the Prometheus endpoint port.
	DefaultMetricsPort = 9090

	// DefaultChannelTimeout caps the wait for the first SSH channel.
	DefaultChannelTimeout = 20 * time.Second

	// DefaultAdminUsername and DefaultAdminPassword seed the first admin
	// user. The password is meant to be changed immediately.
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "ChangeMe123!"
)

// GetDefaultConfig returns a Config with every default applied.
func GetDefaultConfig() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills in missing values section by section.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(cfg)
	applySFTPDefaults(&cfg.SFTP)
	cfg.Database.ApplyDefaults()
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
	applyAdminDefaults(&cfg.Admin)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func applySFTPDefaults(cfg *sftpd.Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultSFTPPort
	}
	if cfg.Root == "" {
		cfg.Root = defaultSFTPRoot()
	}
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = filepath.Join(ConfigDir(), "host_key.pem")
	}
	if cfg.ChannelTimeout == 0 {
		cfg.ChannelTimeout = DefaultChannelTimeout
	}
}

// defaultSFTPRoot is an sftp_root directory sibling to the program binary.
func defaultSFTPRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return "sftp_root"
	}
	return filepath.Join(filepath.Dir(exe), "sftp_root")
}

func applyAPIDefaults(cfg *api.Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultAPIPort
	}
	if cfg.JWT.Expiry == 0 {
		cfg.JWT.Expiry = 12 * time.Hour
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Username == "" {
		cfg.Username = DefaultAdminUsername
	}
	if cfg.Password == "" {
		cfg.Password = DefaultAdminPassword
	}
}
