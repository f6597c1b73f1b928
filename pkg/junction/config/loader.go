package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a supported document encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format implied by the extension of path:
// .yaml and .yml are YAML, .json is JSON.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension: %q", ext)
	}
}

// FromFile loads a definitions file. ${VAR} and $VAR references are expanded
// from the environment before decoding, so paths and buffer sizes can vary
// per deployment.
func FromFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Decode([]byte(os.ExpandEnv(string(data))), format)
}

// Decode parses data in the given format. An empty document yields an
// empty Config.
func Decode(data []byte, format Format) (Config, error) {
	var m map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("parse json: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format: %q", format)
	}
	return New(m), nil
}

// FromYAML parses a YAML document.
func FromYAML(data []byte) (Config, error) { return Decode(data, FormatYAML) }

// FromJSON parses a JSON object.
func FromJSON(data []byte) (Config, error) { return Decode(data, FormatJSON) }
