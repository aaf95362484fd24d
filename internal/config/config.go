package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/schema"
)

// Load reads a downstream configuration file, validates it against the
// embedded schema and applies defaults. Unknown fields are returned as
// warnings.
func Load(path string) (*Downstream, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Configf("failed to read config file: %v", err)
	}

	cfg, warnings, err := Parse(path, data)
	if err != nil {
		return nil, warnings, err
	}

	home, _ := os.UserHomeDir()
	applyDefaults(cfg, filepath.Dir(path), home)

	validationWarnings, err := Validate(cfg)
	warnings = append(warnings, validationWarnings...)
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// Parse decodes data as YAML when name ends in .yaml or .yml and as JSON with
// comments otherwise. No defaults are applied.
func Parse(name string, data []byte) (*Downstream, []string, error) {
	jsonData, err := ToJSON(name, data)
	if err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: "failed to parse config file " + name, Cause: err}
	}

	if err := schema.ValidateDownstream(jsonData); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: name, Cause: err}
	}

	var cfg Downstream
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: "failed to parse config file " + name, Cause: err}
	}
	cfg.Path = name

	return &cfg, detectUnknownFields(jsonData), nil
}

// ToJSON converts a configuration document to plain JSON.
func ToJSON(name string, data []byte) ([]byte, error) {
	if !isYAML(name) {
		return jsonc.ToJSON(data), nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("YAML document is not representable as JSON: %w", err)
	}
	return out, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
