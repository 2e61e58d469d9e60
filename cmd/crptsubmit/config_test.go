/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/crptapi"
	"github.com/acronis/go-crptapi/throttle"
)

func TestLoadAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadAppConfig("")
		require.NoError(t, err)
		require.Equal(t, throttle.DefaultLimit, cfg.Throttle.Limit)
		require.Equal(t, throttle.DefaultWindow, cfg.Throttle.Window)
		require.Equal(t, crptapi.DefaultBaseURL, cfg.Registry.BaseURL)
		require.False(t, cfg.ProfServer.Enabled)
	})

	t.Run("yaml file and env vars", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
throttle:
  limit: 3
  window: 2s
crpt:
  baseURL: http://127.0.0.1:8080
`), 0o600))
		t.Setenv("CRPT_THROTTLE_LIMIT", "7")
		t.Setenv("CRPT_PROFSERVER_ENABLED", "true")

		cfg, err := loadAppConfig(path)
		require.NoError(t, err)
		require.Equal(t, 7, cfg.Throttle.Limit)
		require.Equal(t, 2*time.Second, cfg.Throttle.Window)
		require.Equal(t, "http://127.0.0.1:8080", cfg.Registry.BaseURL)
		require.True(t, cfg.ProfServer.Enabled)
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"throttle": {"limit": 4, "window": "500ms"}}`), 0o600))
		cfg, err := loadAppConfig(path)
		require.NoError(t, err)
		require.Equal(t, 4, cfg.Throttle.Limit)
		require.Equal(t, 500*time.Millisecond, cfg.Throttle.Window)
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("throttle:\n  limit: 0\n"), 0o600))
		_, err := loadAppConfig(path)
		require.ErrorContains(t, err, "throttle.limit")
	})
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(""))
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CRPT_TEST_TOKEN=secret-token\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CRPT_TEST_TOKEN") })
	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "secret-token", os.Getenv("CRPT_TEST_TOKEN"))
}
