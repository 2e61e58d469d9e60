/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is a Source backed by spf13/viper. Values are converted with spf13/cast.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ Source = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper: viper.New()}
}

// UseEnvVars makes environment variables override file values and defaults.
// The variable name is the upper-cased prefix and key joined by "_", e.g. throttle.limit is read from
// CRPT_THROTTLE_LIMIT when the prefix is "CRPT".
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.SetEnvPrefix(prefix)
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.AutomaticEnv()
}

// Set overrides the value of the key.
func (va *ViperAdapter) Set(key string, value interface{}) {
	va.viper.Set(key, value)
}

// SetDefault sets the value used when neither the file nor the environment provides one.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(key, value)
}

// ReadFile reads configuration from the file.
func (va *ViperAdapter) ReadFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// Read reads configuration from reader.
func (va *ViperAdapter) Read(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

func (va *ViperAdapter) IsSet(key string) bool {
	return va.viper.IsSet(key)
}

func (va *ViperAdapter) Get(key string) interface{} {
	return va.viper.Get(key)
}

func (va *ViperAdapter) GetBool(key string) (bool, error) {
	res, err := cast.ToBoolE(va.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

func (va *ViperAdapter) GetInt(key string) (int, error) {
	res, err := cast.ToIntE(va.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

func (va *ViperAdapter) GetFloat64(key string) (float64, error) {
	res, err := cast.ToFloat64E(va.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

func (va *ViperAdapter) GetString(key string) (string, error) {
	res, err := cast.ToStringE(va.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

// GetStringFromSet reads a string that must be one of set.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for _, s := range set {
		if str == s || (ignoreCase && strings.EqualFold(str, s)) {
			return str, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// GetDuration reads a duration. Strings like "300ms" and integer nanoseconds are accepted; a missing key gives 0.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	val := va.Get(key)
	if val == nil {
		return 0, nil
	}
	res, err := cast.ToDurationE(val)
	return res, wrapKeyErrIfNeeded(key, err)
}

// GetBytesCount reads a size in bytes given either as a number or as a string like "2M" or "512K".
func (va *ViperAdapter) GetBytesCount(key string) (BytesCount, error) {
	switch v := va.Get(key).(type) {
	case nil:
		return 0, nil
	case BytesCount:
		return v, nil
	case string:
		bc, err := parseBytesCount(v)
		return bc, wrapKeyErrIfNeeded(key, err)
	case float32, float64:
		num := cast.ToFloat64(v)
		if num < 0 {
			return 0, WrapKeyErr(key, fmt.Errorf("negative value is not allowed: %v", num))
		}
		return BytesCount(num), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		num, err := cast.ToInt64E(v)
		if err != nil {
			return 0, WrapKeyErr(key, err)
		}
		if num < 0 {
			return 0, WrapKeyErr(key, fmt.Errorf("negative value is not allowed: %d", num))
		}
		return BytesCount(num), nil
	default:
		return 0, WrapKeyErr(key, fmt.Errorf("unsupported type for bytes count: %T", v))
	}
}

// UnmarshalKey decodes the subtree under key into rawVal using the mapstructure tags.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	viperOpts := make([]viper.DecoderConfigOption, 0, len(opts))
	for _, opt := range opts {
		viperOpts = append(viperOpts, viper.DecoderConfigOption(opt))
	}
	return wrapKeyErrIfNeeded(key, va.viper.UnmarshalKey(key, rawVal, viperOpts...))
}

func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}
