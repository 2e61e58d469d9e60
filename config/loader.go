/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
)

// Loader fills configuration objects from a Source.
// Defaults of all objects are registered first, so one object may rely on keys defaulted by another.
type Loader struct {
	Source Source
}

// NewDefaultLoader creates a viper-backed Loader that also reads environment variables with the given prefix.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new Loader.
func NewLoader(src Source) *Loader {
	return &Loader{Source: src}
}

// LoadFromFile reads the file and sets the values in cfgs.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfgs ...Config) error {
	if err := l.Source.ReadFile(path, dataType); err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	return l.load(cfgs)
}

// LoadFromReader reads data from reader and sets the values in cfgs.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfgs ...Config) error {
	if err := l.Source.Read(reader, dataType); err != nil {
		return err
	}
	return l.load(cfgs)
}

// LoadDefaults sets cfgs from defaults and environment variables only.
func (l *Loader) LoadDefaults(cfgs ...Config) error {
	return l.load(cfgs)
}

func (l *Loader) load(cfgs []Config) error {
	for _, cfg := range cfgs {
		cfg.SetProviderDefaults(dataProviderFor(cfg, l.Source))
	}
	for _, cfg := range cfgs {
		if err := cfg.Set(dataProviderFor(cfg, l.Source)); err != nil {
			return err
		}
	}
	return nil
}
