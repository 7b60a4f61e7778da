// Package api implements the administrative HTTP surface: JWT-protected
// user CRUD, connection listing, analytics aggregation and the status page.
// It consumes the same store as the SFTP core and never touches sessions
// directly.
package api

import (
	"fmt"
	"time"
)

// JWTConfig configures bearer token issuance for the admin API.
type JWTConfig struct {
	// Secret signs tokens with HMAC-SHA256. Required when the API is on.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// Expiry is the token lifetime.
	Expiry time.Duration `mapstructure:"expiry" yaml:"expiry"`
}

// Config contains admin API server configuration.
type Config struct {
	// Enabled turns the HTTP server on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Address is the bind address; empty means all interfaces.
	Address string `mapstructure:"address" yaml:"address"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port"`

	// JWT configures token signing.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`

	// HomeRoot is the shared SFTP root, injected at startup so user creation
	// can make home directories. Not read from the config file.
	HomeRoot string `mapstructure:"-" yaml:"-"`
}

// Addr returns the host:port the API binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
