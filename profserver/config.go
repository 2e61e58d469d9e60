/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package profserver

import "github.com/acronis/go-crptapi/config"

const cfgDefaultKeyPrefix = "profServer"

const (
	cfgKeyEnabled = "enabled"
	cfgKeyAddress = "address"
	cfgKeyMetrics = "metrics"
)

// DefaultAddress is where the debug server listens by default.
const DefaultAddress = "127.0.0.1:8081"

// Config represents a set of configuration parameters for the debug server.
type Config struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address string `mapstructure:"address" yaml:"address" json:"address"`
	// Metrics exposes the Prometheus metrics on /metrics.
	Metrics bool `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the debug server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, false)
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyMetrics, true)
}

// Set sets debug server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Metrics, err = dp.GetBool(cfgKeyMetrics); err != nil {
		return err
	}
	return nil
}
