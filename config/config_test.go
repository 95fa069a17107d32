package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"admin", "frontdesk"}, cfg.Auth.StaffRoles)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 300*time.Second, cfg.Sweeper.Interval)
	assert.Equal(t, 15*time.Second, cfg.Booking.TxTimeout)
	assert.Equal(t, time.UTC, cfg.Booking.Location)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: from-file\nauth:\n  jwt_secret: file-secret\n")
	t.Setenv("DATABASE_DSN", "from-env")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.DSN)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
		assert.Error(t, err)
	})

	t.Run("lock ttl shorter than transaction timeout", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  jwt_secret: x\nlock:\n  ttl_seconds: 10\nbooking:\n  tx_timeout_seconds: 20\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock.ttl_seconds")
	})

	t.Run("lock ttl equal to transaction timeout", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  jwt_secret: x\nlock:\n  ttl_seconds: 15\n"))
		assert.Error(t, err)
	})

	t.Run("bad timezone", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  jwt_secret: x\nbooking:\n  timezone: Mars/Olympus\n"))
		assert.Error(t, err)
	})
}
