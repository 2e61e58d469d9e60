/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package registrystub

import (
	"fmt"
	"time"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/internal/ratelimit"
)

const cfgDefaultKeyPrefix = "stub"

const (
	cfgKeyAddress            = "address"
	cfgKeyDocumentsPath      = "documentsPath"
	cfgKeyLatency            = "latency"
	cfgKeyFailureRatio       = "failureRatio"
	cfgKeyStrictValidation   = "strictValidation"
	cfgKeyMaxRequestBodySize = "maxRequestBodySize"
	cfgKeyShutdownTimeout    = "shutdownTimeout"
	cfgKeyRateLimitEnabled   = "rateLimit.enabled"
	cfgKeyRateLimitAlg       = "rateLimit.alg"
	cfgKeyRateLimitCount     = "rateLimit.count"
	cfgKeyRateLimitWindow    = "rateLimit.window"
	cfgKeyRateLimitBurst     = "rateLimit.burst"
	cfgKeyRateLimitMaxKeys   = "rateLimit.maxKeys"
)

// Default values.
const (
	DefaultAddress            = "127.0.0.1:8080"
	DefaultDocumentsPath      = "/api/v3/lk/documents/create"
	DefaultMaxRequestBodySize = config.BytesCount(1024 * 1024)
	DefaultShutdownTimeout    = 5 * time.Second
	DefaultRateLimitCount     = 10
	DefaultRateLimitWindow    = time.Second
)

// RateLimitConfig configures the server-side rate limit of the stub.
// Requests over the limit are rejected with 429 and Retry-After.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Alg     string        `mapstructure:"alg" yaml:"alg" json:"alg"`
	Count   int           `mapstructure:"count" yaml:"count" json:"count"`
	Window  time.Duration `mapstructure:"window" yaml:"window" json:"window"`
	Burst   int           `mapstructure:"burst" yaml:"burst" json:"burst"`
	MaxKeys int           `mapstructure:"maxKeys" yaml:"maxKeys" json:"maxKeys"`
}

// NewLimiter creates the limiter described by the config.
func (c *RateLimitConfig) NewLimiter() (ratelimit.Limiter, error) {
	return ratelimit.NewLimiter(c.Alg, ratelimit.Rate{Count: c.Count, Duration: c.Window}, c.Burst, c.MaxKeys)
}

// Config represents a set of configuration parameters for the stub registry.
type Config struct {
	Address       string `mapstructure:"address" yaml:"address" json:"address"`
	DocumentsPath string `mapstructure:"documentsPath" yaml:"documentsPath" json:"documentsPath"`

	// Latency is added to every document request before it is processed.
	Latency time.Duration `mapstructure:"latency" yaml:"latency" json:"latency"`

	// FailureRatio is the share (0..1) of valid documents answered with 500.
	FailureRatio float64 `mapstructure:"failureRatio" yaml:"failureRatio" json:"failureRatio"`

	// StrictValidation enables INN and TNVED format checks.
	StrictValidation bool `mapstructure:"strictValidation" yaml:"strictValidation" json:"strictValidation"`

	MaxRequestBodySize config.BytesCount `mapstructure:"maxRequestBodySize" yaml:"maxRequestBodySize" json:"maxRequestBodySize"`
	ShutdownTimeout    time.Duration     `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Address:            DefaultAddress,
		DocumentsPath:      DefaultDocumentsPath,
		MaxRequestBodySize: DefaultMaxRequestBodySize,
		ShutdownTimeout:    DefaultShutdownTimeout,
		RateLimit: RateLimitConfig{
			Alg:     ratelimit.AlgSlidingWindow,
			Count:   DefaultRateLimitCount,
			Window:  DefaultRateLimitWindow,
			MaxKeys: ratelimit.DefaultMaxKeys,
		},
		keyPrefix: cfgDefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyDocumentsPath, DefaultDocumentsPath)
	dp.SetDefault(cfgKeyLatency, "0s")
	dp.SetDefault(cfgKeyFailureRatio, 0)
	dp.SetDefault(cfgKeyStrictValidation, false)
	dp.SetDefault(cfgKeyMaxRequestBodySize, DefaultMaxRequestBodySize.String())
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout.String())
	dp.SetDefault(cfgKeyRateLimitEnabled, false)
	dp.SetDefault(cfgKeyRateLimitAlg, ratelimit.AlgSlidingWindow)
	dp.SetDefault(cfgKeyRateLimitCount, DefaultRateLimitCount)
	dp.SetDefault(cfgKeyRateLimitWindow, DefaultRateLimitWindow.String())
	dp.SetDefault(cfgKeyRateLimitBurst, 0)
	dp.SetDefault(cfgKeyRateLimitMaxKeys, ratelimit.DefaultMaxKeys)
}

// Set sets stub configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.DocumentsPath, err = dp.GetString(cfgKeyDocumentsPath); err != nil {
		return err
	}
	if c.DocumentsPath == "" || c.DocumentsPath[0] != '/' {
		return dp.WrapKeyErr(cfgKeyDocumentsPath, fmt.Errorf("must start with /"))
	}
	if c.Latency, err = dp.GetDuration(cfgKeyLatency); err != nil {
		return err
	}
	if c.Latency < 0 {
		return dp.WrapKeyErr(cfgKeyLatency, fmt.Errorf("cannot be negative"))
	}
	if c.FailureRatio, err = dp.GetFloat64(cfgKeyFailureRatio); err != nil {
		return err
	}
	if c.FailureRatio < 0 || c.FailureRatio > 1 {
		return dp.WrapKeyErr(cfgKeyFailureRatio, fmt.Errorf("must be within [0, 1]"))
	}
	if c.StrictValidation, err = dp.GetBool(cfgKeyStrictValidation); err != nil {
		return err
	}
	if c.MaxRequestBodySize, err = dp.GetBytesCount(cfgKeyMaxRequestBodySize); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = dp.GetDuration(cfgKeyShutdownTimeout); err != nil {
		return err
	}
	return c.setRateLimit(dp)
}

func (c *Config) setRateLimit(dp config.DataProvider) error {
	var err error
	if c.RateLimit.Enabled, err = dp.GetBool(cfgKeyRateLimitEnabled); err != nil {
		return err
	}
	if !c.RateLimit.Enabled {
		return nil
	}
	if c.RateLimit.Alg, err = dp.GetStringFromSet(
		cfgKeyRateLimitAlg, []string{ratelimit.AlgSlidingWindow, ratelimit.AlgLeakyBucket}, false,
	); err != nil {
		return err
	}
	if c.RateLimit.Count, err = dp.GetInt(cfgKeyRateLimitCount); err != nil {
		return err
	}
	if c.RateLimit.Count <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitCount, fmt.Errorf("must be positive"))
	}
	if c.RateLimit.Window, err = dp.GetDuration(cfgKeyRateLimitWindow); err != nil {
		return err
	}
	if c.RateLimit.Window <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitWindow, fmt.Errorf("must be positive"))
	}
	if c.RateLimit.Burst, err = dp.GetInt(cfgKeyRateLimitBurst); err != nil {
		return err
	}
	if c.RateLimit.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitBurst, fmt.Errorf("cannot be negative"))
	}
	if c.RateLimit.MaxKeys, err = dp.GetInt(cfgKeyRateLimitMaxKeys); err != nil {
		return err
	}
	if c.RateLimit.MaxKeys < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitMaxKeys, fmt.Errorf("cannot be negative"))
	}
	return nil
}
