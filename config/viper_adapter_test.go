/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test error")

func TestViperAdapter_Read(t *testing.T) {
	for _, tt := range []struct {
		name     string
		dataType DataType
		text     string
	}{
		{"yaml", DataTypeYAML, testRegistryConfigYAML},
		{"json", DataTypeJSON, testRegistryConfigJSON},
	} {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			require.NoError(t, va.Read(bytes.NewBufferString(tt.text), tt.dataType))

			baseURL, err := va.GetString("registry.baseURL")
			require.NoError(t, err)
			require.Equal(t, "https://ismp.crpt.ru", baseURL)

			timeout, err := va.GetDuration("registry.timeout")
			require.NoError(t, err)
			require.Equal(t, 5*time.Second, timeout)

			require.True(t, va.IsSet("registry.limit"))
			require.False(t, va.IsSet("registry.unknown"))
		})
	}
}

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := NewViperAdapter()
	va.Set("format", "JSON")

	got, err := va.GetStringFromSet("format", []string{"json", "text"}, true)
	require.NoError(t, err)
	require.Equal(t, "JSON", got)

	_, err = va.GetStringFromSet("format", []string{"json", "text"}, false)
	require.EqualError(t, err, `format: unknown value "JSON", should be one of [json text]`)
}

func TestViperAdapter_GetDuration_Unset(t *testing.T) {
	va := NewViperAdapter()
	d, err := va.GetDuration("missing")
	require.NoError(t, err)
	require.Zero(t, d)

	va.Set("bad", "five seconds")
	_, err = va.GetDuration("bad")
	require.Error(t, err)
}

func TestViperAdapter_UnmarshalKey(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.Read(bytes.NewBufferString(testRegistryConfigYAML), DataTypeYAML))

	var dst struct {
		BaseURL string
		Limit   int
	}
	require.NoError(t, va.UnmarshalKey("registry", &dst))
	require.Equal(t, "https://ismp.crpt.ru", dst.BaseURL)
	require.Equal(t, 10, dst.Limit)
}

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.Read(bytes.NewBufferString(testRegistryConfigYAML), DataTypeYAML))

	kp := NewKeyPrefixedDataProvider(va, "registry")
	limit, err := kp.GetInt("limit")
	require.NoError(t, err)
	require.Equal(t, 10, limit)

	kp.SetDefault("token", "secret")
	token, err := va.GetString("registry.token")
	require.NoError(t, err)
	require.Equal(t, "secret", token)

	require.EqualError(t, kp.WrapKeyErr("limit", errTest), "registry.limit: test error")
}
