/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"strings"
	"time"
)

// KeyPrefixedDataProvider scopes a DataProvider to one section of the configuration.
// With prefix "crpt", GetString("baseURL") reads "crpt.baseURL".
// Prefixed providers nest: the registry client scopes its HTTP client to "crpt.httpClient".
type KeyPrefixedDataProvider struct {
	delegate  DataProvider
	keyPrefix string
}

var _ DataProvider = (*KeyPrefixedDataProvider)(nil)

// NewKeyPrefixedDataProvider creates a new KeyPrefixedDataProvider.
func NewKeyPrefixedDataProvider(delegate DataProvider, keyPrefix string) *KeyPrefixedDataProvider {
	return &KeyPrefixedDataProvider{delegate: delegate, keyPrefix: keyPrefix}
}

func (kp *KeyPrefixedDataProvider) key(key string) string {
	return strings.Trim(kp.keyPrefix+"."+key, ".")
}

func (kp *KeyPrefixedDataProvider) SetDefault(key string, value interface{}) {
	kp.delegate.SetDefault(kp.key(key), value)
}

func (kp *KeyPrefixedDataProvider) IsSet(key string) bool {
	return kp.delegate.IsSet(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) Get(key string) interface{} {
	return kp.delegate.Get(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) GetBool(key string) (bool, error) {
	return kp.delegate.GetBool(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) GetInt(key string) (int, error) {
	return kp.delegate.GetInt(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) GetFloat64(key string) (float64, error) {
	return kp.delegate.GetFloat64(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) GetString(key string) (string, error) {
	return kp.delegate.GetString(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	return kp.delegate.GetStringFromSet(kp.key(key), set, ignoreCase)
}

func (kp *KeyPrefixedDataProvider) GetDuration(key string) (time.Duration, error) {
	return kp.delegate.GetDuration(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) GetBytesCount(key string) (BytesCount, error) {
	return kp.delegate.GetBytesCount(kp.key(key))
}

func (kp *KeyPrefixedDataProvider) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	return kp.delegate.UnmarshalKey(kp.key(key), rawVal, opts...)
}

// WrapKeyErr wraps err with the full (prefixed) key.
func (kp *KeyPrefixedDataProvider) WrapKeyErr(key string, err error) error {
	return kp.delegate.WrapKeyErr(kp.key(key), err)
}
