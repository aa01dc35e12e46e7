package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FINDIT_ADDR", "FINDIT_DB_DRIVER", "FINDIT_DB_DSN", "FINDIT_LOG", "FINDIT_JWT_SECRET"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "findit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadEmptyPath(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
addr: 127.0.0.1:9000
database:
  driver: postgres
  dsn: postgres://findit@localhost/findit
server:
  shutdown_timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://findit@localhost/findit", cfg.Database.DSN)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	// Unset keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout())
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "addr: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database:\n  driver: mysql\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  read_timeout: soon\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "read_timeout")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "addr: :7000\n")
	t.Setenv("FINDIT_ADDR", ":9999")
	t.Setenv("FINDIT_DB_DSN", "/var/lib/findit/db.sqlite3")
	t.Setenv("FINDIT_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "/var/lib/findit/db.sqlite3", cfg.Database.DSN)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestDurationFallback(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout())
	assert.Equal(t, 60*time.Second, cfg.WriteTimeout())
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout())
}
