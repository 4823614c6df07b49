package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/challengr/internal/config"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty directory so no stray .env is read.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CHALLENGR_ENV_FILE", filepath.Join(dir, ".env"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, 42, cfg.Calendar.MaxDays)
	require.Equal(t, "epoch", cfg.Calendar.WeekAlignment)
	require.Equal(t, "stdio", cfg.Transport.Mode)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "challengr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  mode: http
api:
  base_url: https://challenges.example.com/api
  timeout: 3s
calendar:
  max_days: 14
  week_alignment: year
`), 0o600))

	t.Setenv("CHALLENGR_CONFIG_PATH", path)
	t.Setenv("CHALLENGR_SERVER_PORT", "9090")
	t.Setenv("CHALLENGR_CALENDAR_MAX_DAYS", "21")
	t.Setenv("CHALLENGR_AUTH_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "https://challenges.example.com/api", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, 21, cfg.Calendar.MaxDays)
	require.Equal(t, "year", cfg.Calendar.WeekAlignment)
	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 8, cfg.Calendar.LookupConcurrency)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CHALLENGR_PROFILE=work\n"), 0o600))
	t.Setenv("CHALLENGR_ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("CHALLENGR_PROFILE") })

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "work", cfg.Profile)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CHALLENGR_SERVER_PORT":       "eighty",
		"CHALLENGR_AUTH_ENABLED":      "maybe",
		"CHALLENGR_API_TIMEOUT":       "soon",
		"CHALLENGR_CALENDAR_MAX_DAYS": "0",
		"CHALLENGR_WEEK_ALIGNMENT":    "lunar",
		"CHALLENGR_TRANSPORT":         "carrier-pigeon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CHALLENGR_CONFIG_PATH", filepath.Join(dir, "nope.yaml"))
	_, err := config.Load()
	require.Error(t, err)
}
