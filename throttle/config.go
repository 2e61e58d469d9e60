/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"fmt"
	"time"

	"github.com/acronis/go-crptapi/config"
)

const cfgDefaultKeyPrefix = "throttle"

const (
	cfgKeyLimit  = "limit"
	cfgKeyWindow = "window"
)

// Default values.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Second
)

// Config represents a set of configuration parameters for the Throttle.
type Config struct {
	// Limit is the maximum number of calls admitted at once and within one Window.
	Limit int `mapstructure:"limit" yaml:"limit" json:"limit"`
	// Window is the length of the rolling interval the Limit applies to.
	Window time.Duration `mapstructure:"window" yaml:"window" json:"window"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{Limit: DefaultLimit, Window: DefaultWindow, keyPrefix: cfgDefaultKeyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyLimit, DefaultLimit)
	dp.SetDefault(cfgKeyWindow, DefaultWindow.String())
}

// Set sets throttle configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Limit, err = dp.GetInt(cfgKeyLimit); err != nil {
		return err
	}
	if c.Limit <= 0 {
		return dp.WrapKeyErr(cfgKeyLimit, fmt.Errorf("must be positive"))
	}
	if c.Window, err = dp.GetDuration(cfgKeyWindow); err != nil {
		return err
	}
	if c.Window <= 0 {
		return dp.WrapKeyErr(cfgKeyWindow, fmt.Errorf("must be positive"))
	}
	return nil
}
