/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/config"
)

func loadConfig(t *testing.T, yamlData string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString(yamlData), config.DataTypeYAML, cfg)
	return cfg, err
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig(t, ``)
		require.NoError(t, err)
		require.Equal(t, DefaultClientWaitTimeout, cfg.Timeout)
		require.False(t, cfg.Retries.Enabled)
		require.True(t, cfg.Logger.Enabled)
		require.Equal(t, string(LoggingModeAll), cfg.Logger.Mode)
		require.Equal(t, DefaultSlowRequestThreshold, cfg.Logger.SlowRequestThreshold)
		require.False(t, cfg.Metrics.Enabled)
	})

	t.Run("full", func(t *testing.T) {
		cfg, err := loadConfig(t, `
httpClient:
  timeout: 5s
  retries:
    enabled: true
    maxAttempts: 7
    policy:
      strategy: constant
      constantBackoffInterval: 250ms
  logger:
    enabled: true
    mode: failed
    slowRequestThreshold: 2s
  metrics:
    enabled: true
`)
		require.NoError(t, err)
		require.Equal(t, 5*time.Second, cfg.Timeout)
		require.True(t, cfg.Retries.Enabled)
		require.Equal(t, 7, cfg.Retries.MaxAttempts)
		require.Equal(t, RetryPolicyConstant, cfg.Retries.Policy.Strategy)
		require.Equal(t, 250*time.Millisecond, cfg.Retries.Policy.ConstantBackoffInterval)
		require.Equal(t, string(LoggingModeFailed), cfg.Logger.Mode)
		require.Equal(t, 2*time.Second, cfg.Logger.SlowRequestThreshold)
		require.True(t, cfg.Metrics.Enabled)

		opts := cfg.Retries.TransportOpts()
		require.Equal(t, 7, opts.MaxRetryAttempts)
		require.Equal(t, 250*time.Millisecond, opts.BackoffPolicy.NewBackOff().NextBackOff())
	})

	t.Run("exponential policy", func(t *testing.T) {
		cfg, err := loadConfig(t, `
httpClient:
  retries:
    enabled: true
    policy:
      exponentialBackoffInitialInterval: 100ms
      exponentialBackoffMultiplier: 3
`)
		require.NoError(t, err)
		require.Equal(t, DefaultMaxRetryAttempts, cfg.Retries.MaxAttempts)
		bf := cfg.Retries.GetPolicy().NewBackOff()
		require.IsType(t, &backoff.ExponentialBackOff{}, bf)
		require.Equal(t, 100*time.Millisecond, bf.(*backoff.ExponentialBackOff).InitialInterval)
		require.Equal(t, 3.0, bf.(*backoff.ExponentialBackOff).Multiplier)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name    string
			yaml    string
			wantErr string
		}{
			{
				name:    "negative timeout",
				yaml:    "httpClient:\n  timeout: -1s",
				wantErr: "httpClient.timeout: cannot be negative",
			},
			{
				name:    "unknown logger mode",
				yaml:    "httpClient:\n  logger:\n    mode: some",
				wantErr: `httpClient.logger.mode: unknown value "some", should be one of [none all failed]`,
			},
			{
				name:    "unknown retry strategy",
				yaml:    "httpClient:\n  retries:\n    enabled: true\n    policy:\n      strategy: linear",
				wantErr: `httpClient.retries.policy.strategy: unknown value "linear"`,
			},
			{
				name:    "small multiplier",
				yaml:    "httpClient:\n  retries:\n    enabled: true\n    policy:\n      exponentialBackoffMultiplier: 1",
				wantErr: "httpClient.retries.policy.exponentialBackoffMultiplier: must be greater than 1",
			},
			{
				name:    "negative max attempts",
				yaml:    "httpClient:\n  retries:\n    enabled: true\n    maxAttempts: -2",
				wantErr: "httpClient.retries.maxAttempts: cannot be negative",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := loadConfig(t, tt.yaml)
				require.ErrorContains(t, err, tt.wantErr)
			})
		}
	})

	t.Run("disabled retries skip policy validation", func(t *testing.T) {
		cfg, err := loadConfig(t, "httpClient:\n  retries:\n    policy:\n      strategy: linear")
		require.NoError(t, err)
		require.False(t, cfg.Retries.Enabled)
	})
}
