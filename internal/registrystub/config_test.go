/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package registrystub

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/internal/ratelimit"
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
		require.Equal(t, DefaultAddress, cfg.Address)
		require.Equal(t, DefaultDocumentsPath, cfg.DocumentsPath)
		require.Zero(t, cfg.Latency)
		require.Zero(t, cfg.FailureRatio)
		require.False(t, cfg.StrictValidation)
		require.Equal(t, DefaultMaxRequestBodySize, cfg.MaxRequestBodySize)
		require.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
		require.False(t, cfg.RateLimit.Enabled)
	})

	t.Run("full", func(t *testing.T) {
		cfg, err := loadConfig(t, `
stub:
  address: 127.0.0.1:9090
  documentsPath: /documents
  latency: 150ms
  failureRatio: 0.25
  strictValidation: true
  maxRequestBodySize: 2M
  shutdownTimeout: 1s
  rateLimit:
    enabled: true
    alg: leakyBucket
    count: 5
    window: 2s
    burst: 3
    maxKeys: 100
`)
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:9090", cfg.Address)
		require.Equal(t, "/documents", cfg.DocumentsPath)
		require.Equal(t, 150*time.Millisecond, cfg.Latency)
		require.Equal(t, 0.25, cfg.FailureRatio)
		require.True(t, cfg.StrictValidation)
		require.Equal(t, config.BytesCount(2*1024*1024), cfg.MaxRequestBodySize)
		require.Equal(t, time.Second, cfg.ShutdownTimeout)
		require.Equal(t, RateLimitConfig{
			Enabled: true,
			Alg:     ratelimit.AlgLeakyBucket,
			Count:   5,
			Window:  2 * time.Second,
			Burst:   3,
			MaxKeys: 100,
		}, cfg.RateLimit)

		limiter, err := cfg.RateLimit.NewLimiter()
		require.NoError(t, err)
		require.IsType(t, &ratelimit.LeakyBucketLimiter{}, limiter)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name   string
			yaml   string
			errMsg string
		}{
			{
				name:   "documents path without leading slash",
				yaml:   "stub:\n  documentsPath: documents",
				errMsg: `stub.documentsPath: must start with /`,
			},
			{
				name:   "negative latency",
				yaml:   "stub:\n  latency: -1s",
				errMsg: `stub.latency: cannot be negative`,
			},
			{
				name:   "failure ratio above one",
				yaml:   "stub:\n  failureRatio: 1.5",
				errMsg: `stub.failureRatio: must be within [0, 1]`,
			},
			{
				name:   "unknown rate limiting algorithm",
				yaml:   "stub:\n  rateLimit:\n    enabled: true\n    alg: tokenBucket",
				errMsg: `stub.rateLimit.alg: unknown value "tokenBucket"`,
			},
			{
				name:   "zero rate limit count",
				yaml:   "stub:\n  rateLimit:\n    enabled: true\n    count: 0",
				errMsg: `stub.rateLimit.count: must be positive`,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := loadConfig(t, tt.yaml)
				require.ErrorContains(t, err, tt.errMsg)
			})
		}
	})
}
