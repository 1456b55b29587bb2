package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("CONFIG_DIR", t.TempDir())

	conf := NewConfig()
	assert.Equal(t, "DEV", conf.Env)
	assert.True(t, conf.Debug)
	assert.False(t, conf.TestMode)
	assert.Equal(t, "Ratiba", conf.AppName)
	assert.Equal(t, EngineCSV, conf.Database.Engine)
	assert.Equal(t, "admin", conf.Admin.Username)
	assert.True(t, conf.Admin.ViewAll)
	assert.Equal(t, 7*24*time.Hour, conf.Server.JWTExpirationDelta)
	assert.Equal(t, time.Duration(0), conf.Completion.SweepInterval)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}

func TestNewConfig_envOverrides(t *testing.T) {
	dir := t.TempDir()
	dotEnv := "TEST_ADMIN_PASSCODE=s3cret\nTEST_DATABASE_ENGINE=SQLite3\n"
	if err := os.WriteFile(filepath.Join(dir, ".env.test"), []byte(dotEnv), 0o600); err != nil {
		t.Fatalf("os.WriteFile(): %v", err)
	}
	t.Setenv("ENV", "test")
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("TEST_ADMIN_VIEWALL", "false")
	t.Setenv("TEST_COMPLETION_SWEEPINTERVAL", "15m")
	t.Setenv("TEST_SERVER_HOST", "127.0.0.1:9000")
	t.Cleanup(func() {
		_ = os.Unsetenv("TEST_ADMIN_PASSCODE")
		_ = os.Unsetenv("TEST_DATABASE_ENGINE")
	})

	conf := NewConfig()
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "s3cret", conf.Admin.Passcode)
	assert.Equal(t, EngineSQLite, conf.Database.Engine)
	assert.False(t, conf.Admin.ViewAll)
	assert.Equal(t, 15*time.Minute, conf.Completion.SweepInterval)
	assert.Equal(t, "127.0.0.1:9000", conf.Server.Host)
}
