package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a yaml or json file and decodes it into target using the
// target's json tags. Map keys keep their case. Other formats viper knows are
// read through viper, which folds keys to lower case.
func LoadFile(path string, target any) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJson(path)
	case ".json":
		data, err = os.ReadFile(path)
		if err != nil {
			err = fmt.Errorf("reading %s: %w", path, err)
		}
	default:
		data, err = viperToJson(path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func yamlToJson(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	data, err := json.Marshal(stringKeys(doc))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	return data, nil
}

func viperToJson(path string) ([]byte, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	data, err := json.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	return data, nil
}

// stringKeys turns yaml mappings with non-string keys, such as `1: x`, into
// maps json can encode.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}
