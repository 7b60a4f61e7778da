package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSFTPPort, cfg.SFTP.Port)
	assert.Equal(t, DefaultChannelTimeout, cfg.SFTP.ChannelTimeout)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, store.DatabaseTypeSQLite, cfg.Database.Type)
	assert.Equal(t, DefaultAdminUsername, cfg.Admin.Username)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: DEBUG
  format: json
sftp:
  port: 2200
  root: ` + filepath.Join(dir, "root") + `
  channel_timeout: 30s
database:
  type: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "db.sqlite") + `
api:
  enabled: true
  port: 9999
  jwt:
    secret: super-secret
    expiry: 2h
admin:
  username: root
  password: hunter2!
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2200, cfg.SFTP.Port)
	assert.Equal(t, 30*time.Second, cfg.SFTP.ChannelTimeout)
	assert.Equal(t, filepath.Join(dir, "db.sqlite"), cfg.Database.SQLite.Path)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, "super-secret", cfg.API.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.API.JWT.Expiry)
	assert.Equal(t, "root", cfg.Admin.Username)
}

func TestLoadRejectsEnabledAPIWithoutSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  enabled: true\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SFTPC_SFTP_PORT", "2345")
	t.Setenv("SFTPC_LOGGING_LEVEL", "ERROR")
	t.Setenv("SFTPC_ADMIN_PASSWORD", "FromEnv1!")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2345, cfg.SFTP.Port)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, "FromEnv1!", cfg.Admin.Password)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.SFTP.Port = 2323

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2323, loaded.SFTP.Port)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.SFTP.Port = 70000
	assert.Error(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.SFTP.Port = -1
	assert.Error(t, Validate(cfg))
}
