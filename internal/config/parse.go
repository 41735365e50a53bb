package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse parses YAML data on top of DefaultConfig. Fields absent from data
// keep their defaults; a list present in data replaces the default list.
// It returns an error if the YAML is malformed, contains
// unknown fields, or has type mismatches. Empty input returns the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := strictUnmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// strictUnmarshal unmarshals YAML data into v, rejecting unknown fields.
// This helps catch typos in configuration files early.
// Empty input is treated as valid, leaving v unchanged.
func strictUnmarshal(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}
	return nil
}

// Marshal marshals a Config to YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
