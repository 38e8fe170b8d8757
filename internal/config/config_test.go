package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
  password: from-file
jwt:
  secret: file-secret
notification:
  timeout: 3s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFileAndDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3*time.Second, cfg.Notification.Timeout)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.False(t, cfg.Purge.Enabled)
	assert.Equal(t, 90*24*time.Hour, cfg.Purge.Retention)
	assert.Equal(t, "host=db.internal port=5432 user=clinic password=from-file dbname=clinic sslmode=disable", cfg.Database.DSN())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("CLINIC_DATABASE_HOST", "override.internal")
	t.Setenv("CLINIC_DATABASE_DRIVER", "memory")
	t.Setenv("CLINIC_JWT_SECRET", "env-secret")
	t.Setenv("CLINIC_NOTIFICATION_TIMEOUT", "750ms")

	cfg, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 750*time.Millisecond, cfg.Notification.Timeout)
	assert.Equal(t, "from-file", cfg.Database.Password)
}

func TestValidate(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "database:\n  driver: mysql\njwt:\n  secret: x\n"))
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	assert.ErrorContains(t, err, "jwt.secret")

	_, err = LoadConfig(writeConfig(t, "jwt:\n  secret: x\npurge:\n  enabled: true\n  interval: 0s\n"))
	assert.ErrorContains(t, err, "purge")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
