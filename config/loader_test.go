/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testRegistryConfig struct {
	BaseURL string
	Timeout time.Duration
	Limit   int
}

func (c *testRegistryConfig) KeyPrefix() string {
	return "registry"
}

func (c *testRegistryConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("baseURL", "http://localhost:8080")
	dp.SetDefault("timeout", "30s")
	dp.SetDefault("limit", 1)
}

func (c *testRegistryConfig) Set(dp DataProvider) (err error) {
	if c.BaseURL, err = dp.GetString("baseURL"); err != nil {
		return err
	}
	if c.Timeout, err = dp.GetDuration("timeout"); err != nil {
		return err
	}
	if c.Limit, err = dp.GetInt("limit"); err != nil {
		return err
	}
	return nil
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("use defaults", func(t *testing.T) {
		cfg := &testRegistryConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, cfg)
		require.NoError(t, err)
		require.Equal(t, "http://localhost:8080", cfg.BaseURL)
		require.Equal(t, 30*time.Second, cfg.Timeout)
		require.Equal(t, 1, cfg.Limit)
	})

	t.Run("yaml", func(t *testing.T) {
		cfg := &testRegistryConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(testRegistryConfigYAML), DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, "https://ismp.crpt.ru", cfg.BaseURL)
		require.Equal(t, 5*time.Second, cfg.Timeout)
		require.Equal(t, 10, cfg.Limit)
	})

	t.Run("json", func(t *testing.T) {
		cfg := &testRegistryConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(testRegistryConfigJSON), DataTypeJSON, cfg)
		require.NoError(t, err)
		require.Equal(t, "https://ismp.crpt.ru", cfg.BaseURL)
		require.Equal(t, 10, cfg.Limit)
	})

	t.Run("invalid value", func(t *testing.T) {
		cfg := &testRegistryConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"registry": {"limit": "many"}}`), DataTypeJSON, cfg)
		require.EqualError(t, err, `registry.limit: unable to cast "many" of type string to int`)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testRegistryConfigYAML), 0o600))

	cfg := &testRegistryConfig{}
	require.NoError(t, NewDefaultLoader("").LoadFromFile(cfgPath, DataTypeYAML, cfg))
	require.Equal(t, "https://ismp.crpt.ru", cfg.BaseURL)

	err := NewDefaultLoader("").LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), DataTypeYAML, cfg)
	require.Error(t, err)
}

func TestLoader_LoadDefaults(t *testing.T) {
	t.Setenv("CRPTTEST_REGISTRY_LIMIT", "7")
	t.Setenv("CRPTTEST_REGISTRY_TIMEOUT", "250ms")

	cfg := &testRegistryConfig{}
	require.NoError(t, NewDefaultLoader("crpttest").LoadDefaults(cfg))
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, 7, cfg.Limit)
	require.Equal(t, 250*time.Millisecond, cfg.Timeout)
}
