// Package config tests.
package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "fluxdock.db", cfg.SQLitePath)
	assert.Equal(t, 30, cfg.MaxWindows)
	assert.Equal(t, 10, cfg.MaxActivity)
	assert.Equal(t, 4, cfg.MaxUploads)
	assert.Equal(t, 300*time.Millisecond, cfg.LaunchDelay)
	assert.Equal(t, 168*time.Hour, cfg.ResultTTL)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 50, cfg.HostBacklog)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.GeneratorEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LAUNCH_DELAY", "50ms")
	t.Setenv("MAX_WINDOWS", "5")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 50*time.Millisecond, cfg.LaunchDelay)
	assert.Equal(t, 5, cfg.MaxWindows)
	assert.True(t, cfg.GeneratorEnabled())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_WithPrefix(t *testing.T) {
	os.Clearenv()
	t.Setenv("FLUXDOCK_MAX_UPLOADS", "2")
	cfg, err := LoadWithPrefix("FLUXDOCK")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxUploads)
}

func TestLoad_UnknownDriver(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORAGE_DRIVER", "redis")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	cfg := &Config{
		StorageDriver: DriverPostgres,
		MaxWindows:    30,
		MaxActivity:   10,
		MaxUploads:    4,
	}
	assert.Error(t, cfg.Validate())

	cfg.PostgresDSN = "postgres://localhost/fluxdock"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Bounds(t *testing.T) {
	cfg := &Config{StorageDriver: DriverMemory, MaxWindows: 0, MaxActivity: 10, MaxUploads: 4}
	assert.Error(t, cfg.Validate())
}
