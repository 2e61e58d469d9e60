/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// BytesCount represents a size in bytes that can be parsed from JSON, YAML and configuration providers.
// Both integers and human-readable strings (e.g. "250M", "1Gi") are accepted.
type BytesCount uint64

// UnmarshalJSON allows decoding from both integers and human-readable strings.
func (b *BytesCount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		if num < 0 {
			return fmt.Errorf("negative value is not allowed: %d", num)
		}
		*b = BytesCount(num)
		return nil
	}
	bc, err := parseBytesCount(s)
	if err != nil {
		return err
	}
	*b = bc
	return nil
}

// UnmarshalYAML allows decoding from YAML.
func (b *BytesCount) UnmarshalYAML(value *yaml.Node) error {
	var num uint64
	if err := value.Decode(&num); err == nil {
		*b = BytesCount(num)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid bytes count format: %v", value)
	}
	bc, err := parseBytesCount(s)
	if err != nil {
		return err
	}
	*b = bc
	return nil
}

// UnmarshalText allows decoding from text (used by mapstructure.TextUnmarshallerHookFunc).
func (b *BytesCount) UnmarshalText(text []byte) error {
	return b.UnmarshalJSON(text)
}

// String returns the human-readable string representation.
func (b BytesCount) String() string {
	return bytefmt.ByteSize(uint64(b))
}

// MarshalJSON encodes as a human-readable string in JSON.
func (b BytesCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MarshalYAML encodes as a human-readable string in YAML.
func (b BytesCount) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func parseBytesCount(s string) (BytesCount, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, nil
	}

	// Handle k8s power-of-two values.
	for _, k8sByteSuffix := range [...]string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei"} {
		if strings.HasSuffix(v, k8sByteSuffix) {
			v = v[:len(v)-1]
			break
		}
	}

	num, err := bytefmt.ToBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid bytes count format (%s): %w", s, err)
	}
	return BytesCount(num), nil
}
