/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/crptapi"
	"github.com/acronis/go-crptapi/internal/registrystub"
	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/profserver"
	"github.com/acronis/go-crptapi/throttle"
)

// envVarsPrefix is the prefix of environment variables overriding config values, e.g. CRPT_THROTTLE_LIMIT.
const envVarsPrefix = "CRPT"

type appConfig struct {
	Log        *log.Config
	Throttle   *throttle.Config
	Registry   *crptapi.Config
	Stub       *registrystub.Config
	ProfServer *profserver.Config
}

func newAppConfig() *appConfig {
	return &appConfig{
		Log:        log.NewConfig(),
		Throttle:   throttle.NewConfig(),
		Registry:   crptapi.NewConfig(),
		Stub:       registrystub.NewConfig(),
		ProfServer: profserver.NewConfig(),
	}
}

var _ config.Config = (*appConfig)(nil)

func (c *appConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

func (c *appConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

// loadEnvFile loads variables from the dotenv file. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// loadAppConfig reads the config file (YAML or JSON by extension) and environment variables.
// Without a file only defaults and environment variables are used.
func loadAppConfig(path string) (*appConfig, error) {
	cfg := newAppConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	var err error
	if path == "" {
		err = loader.LoadDefaults(cfg)
	} else {
		err = loader.LoadFromFile(path, dataTypeOf(path), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func dataTypeOf(path string) config.DataType {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.DataTypeJSON
	}
	return config.DataTypeYAML
}
