/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/retry"
)

const cfgDefaultKeyPrefix = "httpClient"

const (
	// DefaultClientWaitTimeout is a default timeout for a client to wait for a request.
	DefaultClientWaitTimeout = 10 * time.Second

	// DefaultSlowRequestThreshold is a default threshold after which a request is logged as slow.
	DefaultSlowRequestThreshold = time.Second

	// RetryPolicyExponential is a policy for exponential retries.
	RetryPolicyExponential = "exponential"

	// RetryPolicyConstant is a policy for constant retries.
	RetryPolicyConstant = "constant"
)

const (
	cfgKeyTimeout                                 = "timeout"
	cfgKeyRetriesEnabled                          = "retries.enabled"
	cfgKeyRetriesMax                              = "retries.maxAttempts"
	cfgKeyRetriesPolicyStrategy                   = "retries.policy.strategy"
	cfgKeyRetriesPolicyExponentialInitialInterval = "retries.policy.exponentialBackoffInitialInterval"
	cfgKeyRetriesPolicyExponentialMultiplier      = "retries.policy.exponentialBackoffMultiplier"
	cfgKeyRetriesPolicyConstantInterval           = "retries.policy.constantBackoffInterval"
	cfgKeyLoggerEnabled                           = "logger.enabled"
	cfgKeyLoggerMode                              = "logger.mode"
	cfgKeyLoggerSlowRequestThreshold              = "logger.slowRequestThreshold"
	cfgKeyMetricsEnabled                          = "metrics.enabled"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// PolicyConfig represents configuration options for the retry backoff policy.
type PolicyConfig struct {
	// Strategy is a strategy for retry policy: exponential or constant.
	Strategy string `mapstructure:"strategy"`

	ExponentialBackoffInitialInterval time.Duration `mapstructure:"exponentialBackoffInitialInterval"`
	ExponentialBackoffMultiplier      float64       `mapstructure:"exponentialBackoffMultiplier"`
	ConstantBackoffInterval           time.Duration `mapstructure:"constantBackoffInterval"`
}

func (c *PolicyConfig) set(dp config.DataProvider) error {
	var err error
	if c.Strategy, err = dp.GetStringFromSet(
		cfgKeyRetriesPolicyStrategy, []string{RetryPolicyExponential, RetryPolicyConstant}, false,
	); err != nil {
		return err
	}

	switch c.Strategy {
	case RetryPolicyExponential:
		if c.ExponentialBackoffInitialInterval, err = dp.GetDuration(cfgKeyRetriesPolicyExponentialInitialInterval); err != nil {
			return err
		}
		if c.ExponentialBackoffInitialInterval < 0 {
			return dp.WrapKeyErr(cfgKeyRetriesPolicyExponentialInitialInterval, fmt.Errorf("cannot be negative"))
		}
		if c.ExponentialBackoffMultiplier, err = dp.GetFloat64(cfgKeyRetriesPolicyExponentialMultiplier); err != nil {
			return err
		}
		if c.ExponentialBackoffMultiplier <= 1 {
			return dp.WrapKeyErr(cfgKeyRetriesPolicyExponentialMultiplier, fmt.Errorf("must be greater than 1"))
		}
	case RetryPolicyConstant:
		if c.ConstantBackoffInterval, err = dp.GetDuration(cfgKeyRetriesPolicyConstantInterval); err != nil {
			return err
		}
		if c.ConstantBackoffInterval < 0 {
			return dp.WrapKeyErr(cfgKeyRetriesPolicyConstantInterval, fmt.Errorf("cannot be negative"))
		}
	}
	return nil
}

// RetriesConfig represents configuration options for HTTP client retries policy.
type RetriesConfig struct {
	// Enabled is a flag that enables retries.
	// Creating a document is not idempotent, so retries are disabled by default.
	Enabled bool `mapstructure:"enabled"`

	// MaxAttempts is the maximum number of attempts to retry the request.
	MaxAttempts int `mapstructure:"maxAttempts"`

	// Policy of a retry: [exponential, constant]. Default is exponential.
	Policy PolicyConfig `mapstructure:"policy"`
}

// GetPolicy returns a retry policy based on strategy or nil if none is provided.
func (c *RetriesConfig) GetPolicy() retry.Policy {
	switch c.Policy.Strategy {
	case RetryPolicyExponential:
		return retry.PolicyFunc(func() backoff.BackOff {
			bf := backoff.NewExponentialBackOff()
			bf.InitialInterval = c.Policy.ExponentialBackoffInitialInterval
			bf.Multiplier = c.Policy.ExponentialBackoffMultiplier
			bf.Reset()
			return bf
		})
	case RetryPolicyConstant:
		return retry.PolicyFunc(func() backoff.BackOff {
			return backoff.NewConstantBackOff(c.Policy.ConstantBackoffInterval)
		})
	}
	return nil
}

// TransportOpts returns transport options.
func (c *RetriesConfig) TransportOpts() RetryableRoundTripperOpts {
	return RetryableRoundTripperOpts{MaxRetryAttempts: c.MaxAttempts, BackoffPolicy: c.GetPolicy()}
}

func (c *RetriesConfig) set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyRetriesEnabled); err != nil {
		return err
	}
	if !c.Enabled {
		return nil
	}
	if c.MaxAttempts, err = dp.GetInt(cfgKeyRetriesMax); err != nil {
		return err
	}
	if c.MaxAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyRetriesMax, fmt.Errorf("cannot be negative"))
	}
	return c.Policy.set(dp)
}

// LoggerConfig represents configuration options for HTTP client logs.
type LoggerConfig struct {
	// Enabled is a flag that enables logging.
	Enabled bool `mapstructure:"enabled"`

	// SlowRequestThreshold is a threshold for slow requests.
	SlowRequestThreshold time.Duration `mapstructure:"slowRequestThreshold"`

	// Mode of logging: [none, all, failed].
	Mode string `mapstructure:"mode"`
}

// TransportOpts returns transport options.
func (c *LoggerConfig) TransportOpts() LoggingRoundTripperOpts {
	return LoggingRoundTripperOpts{
		Mode:                 LoggingMode(c.Mode),
		SlowRequestThreshold: c.SlowRequestThreshold,
	}
}

func (c *LoggerConfig) set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyLoggerEnabled); err != nil {
		return err
	}
	if !c.Enabled {
		return nil
	}
	if c.SlowRequestThreshold, err = dp.GetDuration(cfgKeyLoggerSlowRequestThreshold); err != nil {
		return err
	}
	if c.SlowRequestThreshold < 0 {
		return dp.WrapKeyErr(cfgKeyLoggerSlowRequestThreshold, fmt.Errorf("cannot be negative"))
	}
	c.Mode, err = dp.GetStringFromSet(cfgKeyLoggerMode, []string{
		string(LoggingModeNone), string(LoggingModeAll), string(LoggingModeFailed),
	}, false)
	return err
}

// MetricsConfig represents configuration options for HTTP client metrics.
type MetricsConfig struct {
	// Enabled is a flag that enables metrics.
	Enabled bool `mapstructure:"enabled"`
}

// Config represents options for HTTP client configuration.
type Config struct {
	// Retries is a configuration for HTTP client retries policy.
	Retries RetriesConfig `mapstructure:"retries"`

	// Logger is a configuration for HTTP client logs.
	Logger LoggerConfig `mapstructure:"logger"`

	// Metrics is a configuration for HTTP client metrics.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Timeout is the maximum time to wait for a request to be made.
	Timeout time.Duration `mapstructure:"timeout"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Timeout: DefaultClientWaitTimeout,
		Logger: LoggerConfig{
			Enabled:              true,
			Mode:                 string(LoggingModeAll),
			SlowRequestThreshold: DefaultSlowRequestThreshold,
		},
		Retries: RetriesConfig{
			MaxAttempts: DefaultMaxRetryAttempts,
			Policy: PolicyConfig{
				Strategy:                          RetryPolicyExponential,
				ExponentialBackoffInitialInterval: DefaultExponentialBackoffInitialInterval,
				ExponentialBackoffMultiplier:      DefaultExponentialBackoffMultiplier,
			},
		},
		keyPrefix: cfgDefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyTimeout, DefaultClientWaitTimeout.String())
	dp.SetDefault(cfgKeyRetriesEnabled, false)
	dp.SetDefault(cfgKeyRetriesMax, DefaultMaxRetryAttempts)
	dp.SetDefault(cfgKeyRetriesPolicyStrategy, RetryPolicyExponential)
	dp.SetDefault(cfgKeyRetriesPolicyExponentialInitialInterval, DefaultExponentialBackoffInitialInterval.String())
	dp.SetDefault(cfgKeyRetriesPolicyExponentialMultiplier, DefaultExponentialBackoffMultiplier)
	dp.SetDefault(cfgKeyRetriesPolicyConstantInterval, DefaultExponentialBackoffInitialInterval.String())
	dp.SetDefault(cfgKeyLoggerEnabled, true)
	dp.SetDefault(cfgKeyLoggerMode, string(LoggingModeAll))
	dp.SetDefault(cfgKeyLoggerSlowRequestThreshold, DefaultSlowRequestThreshold.String())
	dp.SetDefault(cfgKeyMetricsEnabled, false)
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Timeout, err = dp.GetDuration(cfgKeyTimeout); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, fmt.Errorf("cannot be negative"))
	}
	if err = c.Retries.set(dp); err != nil {
		return err
	}
	if err = c.Logger.set(dp); err != nil {
		return err
	}
	c.Metrics.Enabled, err = dp.GetBool(cfgKeyMetricsEnabled)
	return err
}
