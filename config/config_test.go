package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/jobboard/config"
	"github.com/Skryldev/jobboard/query"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 10*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_SLOW_QUERY", "1s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.Database.SlowQuery)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=from_file\n"), 0o600))
	t.Setenv("DB_NAME", "")
	require.NoError(t, os.Unsetenv("DB_NAME"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.Database.Name)

	_, err = config.Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestDatabaseConfig_Open(t *testing.T) {
	d, err := config.DatabaseConfig{Driver: "sqlite3", Name: ":memory:", MaxOpenConns: 1}.Open()
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, query.SQLite, d.Dialect())

	d2, err := config.DatabaseConfig{Driver: "sqlite3", URL: "file::memory:"}.Open()
	require.NoError(t, err)
	defer d2.Close()
	assert.Equal(t, query.SQLite, d2.Dialect())
}
