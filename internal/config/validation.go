package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration for startup-fatal problems: tag-level
// constraints first, then cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.SFTP.Port <= 0 || cfg.SFTP.Port > 65535 {
		return fmt.Errorf("sftp port %d out of range", cfg.SFTP.Port)
	}
	if cfg.SFTP.Root == "" {
		return fmt.Errorf("sftp root is required")
	}
	if cfg.SFTP.HostKeyPath == "" {
		return fmt.Errorf("sftp host key path is required")
	}
	if cfg.SFTP.ChannelTimeout <= 0 {
		return fmt.Errorf("sftp channel timeout must be positive")
	}

	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return fmt.Errorf("api port %d out of range", cfg.API.Port)
		}
		if cfg.API.JWT.Secret == "" {
			return fmt.Errorf("api jwt secret is required when the api is enabled")
		}
		if cfg.API.JWT.Expiry <= 0 {
			return fmt.Errorf("api jwt expiry must be positive")
		}
	}

	return nil
}
