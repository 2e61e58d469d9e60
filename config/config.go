/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of the submitter components (throttle, registry client, logger, stub)
// from YAML/JSON files and environment variables.
package config

import "reflect"

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// CallSetProviderDefaultsForFields finds all initialized (non-nil) fields of the passed object
// that implement Config interface and calls SetProviderDefaults() method for each of them.
func CallSetProviderDefaultsForFields(obj interface{}, dp DataProvider) {
	forEachConfigField(obj, dp, func(c Config, cDp DataProvider) error {
		c.SetProviderDefaults(cDp)
		return nil
	})
}

// CallSetForFields finds all initialized (non-nil) fields of the passed object
// that implement Config interface and calls Set() method for each of them.
func CallSetForFields(obj interface{}, dp DataProvider) error {
	return forEachConfigField(obj, dp, func(c Config, cDp DataProvider) error {
		return c.Set(cDp)
	})
}

func forEachConfigField(obj interface{}, dp DataProvider, fn func(c Config, cDp DataProvider) error) error {
	el := reflect.ValueOf(obj).Elem()
	for i := 0; i < el.NumField(); i++ {
		if !el.Type().Field(i).IsExported() {
			continue
		}
		v := el.Field(i).Interface()
		if v == nil {
			continue
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			continue
		}
		c, ok := v.(Config)
		if !ok {
			continue
		}
		if err := fn(c, dataProviderFor(c, dp)); err != nil {
			return err
		}
	}
	return nil
}

func dataProviderFor(c Config, dp DataProvider) DataProvider {
	if kp, ok := c.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}
