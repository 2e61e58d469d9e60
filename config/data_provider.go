/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DataType names the format of a configuration source.
type DataType string

// Formats accepted by Source.ReadFile and Source.Read.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataProvider gives a component typed access to its configuration values.
// Components register defaults in SetProviderDefaults and read values in Set.
// Getters wrap conversion errors with the full key, so "throttle.limit: ..." points at the offending value.
type DataProvider interface {
	SetDefault(key string, value interface{})

	IsSet(key string) bool
	Get(key string) interface{}
	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetFloat64(key string) (float64, error)
	GetString(key string) (string, error)
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetDuration(key string) (time.Duration, error)
	GetBytesCount(key string) (BytesCount, error)

	UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error

	WrapKeyErr(key string, err error) error
}

// Source is the root DataProvider the Loader fills from a file or a reader.
// Environment variables, once enabled, take precedence over both.
type Source interface {
	DataProvider

	UseEnvVars(prefix string)
	Set(key string, value interface{})
	ReadFile(path string, dataType DataType) error
	Read(reader io.Reader, dataType DataType) error
}

// DecoderConfigOption tunes the mapstructure decoder used by UnmarshalKey.
type DecoderConfigOption func(*mapstructure.DecoderConfig)

// WrapKeyErr prefixes err with the key of the value it relates to.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}

func wrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}
