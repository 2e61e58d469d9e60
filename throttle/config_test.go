/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantCfg *Config
		wantErr string
	}{
		{
			name:    "defaults",
			data:    `{}`,
			wantCfg: &Config{Limit: DefaultLimit, Window: DefaultWindow, keyPrefix: cfgDefaultKeyPrefix},
		},
		{
			name:    "custom values",
			data:    `{"throttle": {"limit": 5, "window": "1m"}}`,
			wantCfg: &Config{Limit: 5, Window: time.Minute, keyPrefix: cfgDefaultKeyPrefix},
		},
		{
			name:    "non-positive limit",
			data:    `{"throttle": {"limit": 0}}`,
			wantErr: "throttle.limit: must be positive",
		},
		{
			name:    "non-positive window",
			data:    `{"throttle": {"window": "-1s"}}`,
			wantErr: "throttle.window: must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.data), config.DataTypeJSON, cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCfg, cfg)
		})
	}
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("CRPT_THROTTLE_LIMIT", "3")
	cfg := NewConfig()
	require.NoError(t, config.NewDefaultLoader("crpt").LoadDefaults(cfg))
	require.Equal(t, 3, cfg.Limit)
	require.Equal(t, DefaultWindow, cfg.Window)
}
