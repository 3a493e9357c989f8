package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
store: postgres
database_dsn: postgres://u:p@localhost/framez
jwt_key: file-key
token_ttl: 2h
media:
  cloud_name: demo
  upload_preset: unsigned
limiter:
  max_fails: 3
log:
  level: debug
`)
	t.Setenv("FRAMEZ_JWT_KEY", "env-key")
	t.Setenv("FRAMEZ_LIMITER_BLOCK_FOR", "1m")
	t.Setenv("FRAMEZ_LOG_DEV", "true")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@localhost/framez", cfg.DatabaseDSN)
	require.Equal(t, "env-key", cfg.JWTKey)
	require.Equal(t, 2*time.Hour, cfg.TokenTTL)
	require.Equal(t, "demo", cfg.Media.CloudName)
	require.Equal(t, "https://api.cloudinary.com", cfg.Media.BaseURL)
	require.Equal(t, 3, cfg.Limiter.MaxFails)
	require.Equal(t, time.Minute, cfg.Limiter.BlockFor)
	require.Equal(t, 15*time.Minute, cfg.Limiter.Window)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.Dev)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("FRAMEZ_STORE", "memory")
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.Store)

	_, err = Load(missing, true)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FRAMEZ_STORE", "")
	_, err := Load(writeFile(t, "store: postgres\n"), true)
	require.ErrorContains(t, err, "database_dsn")
	require.ErrorContains(t, err, "jwt_key")

	_, err = Load(writeFile(t, "store: sqlite\n"), true)
	require.ErrorContains(t, err, "unknown store")

	_, err = Load(writeFile(t, "store: [\n"), true)
	require.Error(t, err)
}

func TestLoad_BadEnvKeepsValue(t *testing.T) {
	t.Setenv("FRAMEZ_STORE", "memory")
	t.Setenv("FRAMEZ_LIMITER_MAX_FAILS", "many")
	cfg, err := Load("", false)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Limiter.MaxFails)
}

func TestLoad_OptionsOverrideEnv(t *testing.T) {
	t.Setenv("FRAMEZ_STORE", "postgres")
	cfg, err := Load("", false, func(c *Config) { c.Store = StoreMemory })
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.Store)
}

func TestTokenPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	require.Equal(t, "/tmp/xdg/framez/config.yaml", DefaultPath())
	require.Equal(t, "/tmp/xdg/framez/session.json", Default().TokenPath())
}
