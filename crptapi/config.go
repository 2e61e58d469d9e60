/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"fmt"
	"net/url"
	"time"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/httpclient"
)

const cfgDefaultKeyPrefix = "crpt"

const (
	cfgKeyBaseURL             = "baseURL"
	cfgKeyDocumentsPath       = "documentsPath"
	cfgKeyToken               = "token"
	cfgKeyRequestTimeout      = "requestTimeout"
	cfgKeyMaxResponseBodySize = "maxResponseBodySize"
	cfgKeyHTTPClient          = "httpClient"
)

// Default values.
const (
	DefaultBaseURL             = "https://ismp.crpt.ru"
	DefaultDocumentsPath       = "/api/v3/lk/documents/create"
	DefaultRequestTimeout      = 30 * time.Second
	DefaultMaxResponseBodySize = config.BytesCount(64 * 1024)
)

// Config represents a set of configuration parameters for the registry client.
type Config struct {
	// BaseURL is the scheme and host of the registry API.
	BaseURL string `mapstructure:"baseURL" yaml:"baseURL" json:"baseURL"`
	// DocumentsPath is the path of the "create document" endpoint.
	DocumentsPath string `mapstructure:"documentsPath" yaml:"documentsPath" json:"documentsPath"`
	// Token is sent as "Authorization: Bearer <token>" when not empty.
	Token string `mapstructure:"token" yaml:"token" json:"token"`
	// RequestTimeout bounds waiting for a single registry response. Zero disables the bound.
	RequestTimeout time.Duration `mapstructure:"requestTimeout" yaml:"requestTimeout" json:"requestTimeout"`
	// MaxResponseBodySize is how many bytes of the response body are kept.
	MaxResponseBodySize config.BytesCount `mapstructure:"maxResponseBodySize" yaml:"maxResponseBodySize" json:"maxResponseBodySize"`

	HTTPClient *httpclient.Config `mapstructure:"httpClient" yaml:"httpClient" json:"httpClient"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix, HTTPClient: httpclient.NewConfigWithKeyPrefix(cfgKeyHTTPClient)}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	httpCfg := httpclient.NewDefaultConfig()
	httpCfg.Timeout = DefaultRequestTimeout
	return &Config{
		BaseURL:             DefaultBaseURL,
		DocumentsPath:       DefaultDocumentsPath,
		RequestTimeout:      DefaultRequestTimeout,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
		HTTPClient:          httpCfg,
		keyPrefix:           cfgDefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// DocumentsURL returns the full URL of the "create document" endpoint.
func (c *Config) DocumentsURL() string {
	return c.BaseURL + c.DocumentsPath
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeyDocumentsPath, DefaultDocumentsPath)
	dp.SetDefault(cfgKeyToken, "")
	dp.SetDefault(cfgKeyRequestTimeout, DefaultRequestTimeout.String())
	dp.SetDefault(cfgKeyMaxResponseBodySize, DefaultMaxResponseBodySize.String())
	c.httpClientConfig().SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyHTTPClient))
}

// Set sets registry client configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.BaseURL, err = dp.GetString(cfgKeyBaseURL); err != nil {
		return err
	}
	if err = validateBaseURL(c.BaseURL); err != nil {
		return dp.WrapKeyErr(cfgKeyBaseURL, err)
	}
	if c.DocumentsPath, err = dp.GetString(cfgKeyDocumentsPath); err != nil {
		return err
	}
	if c.DocumentsPath == "" || c.DocumentsPath[0] != '/' {
		return dp.WrapKeyErr(cfgKeyDocumentsPath, fmt.Errorf("must start with /"))
	}
	if c.Token, err = dp.GetString(cfgKeyToken); err != nil {
		return err
	}
	if c.RequestTimeout, err = dp.GetDuration(cfgKeyRequestTimeout); err != nil {
		return err
	}
	if c.RequestTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyRequestTimeout, fmt.Errorf("cannot be negative"))
	}
	if c.MaxResponseBodySize, err = dp.GetBytesCount(cfgKeyMaxResponseBodySize); err != nil {
		return err
	}
	if c.MaxResponseBodySize == 0 {
		return dp.WrapKeyErr(cfgKeyMaxResponseBodySize, fmt.Errorf("must be positive"))
	}
	return c.httpClientConfig().Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyHTTPClient))
}

func (c *Config) httpClientConfig() *httpclient.Config {
	if c.HTTPClient == nil {
		c.HTTPClient = httpclient.NewConfigWithKeyPrefix(cfgKeyHTTPClient)
	}
	return c.HTTPClient
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
