package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// decodeFile decodes a config file body into cfg. YAML files do not get
// their own decode path: the document is unmarshalled generically,
// rewritten as JSON and fed through decodeStrict, so unknown-field
// rejection behaves identically for both formats.
func decodeFile(path string, data []byte, cfg *Config) error {
	if isYAMLPath(path) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse config (yaml): %w", err)
		}
		jb, err := json.Marshal(stringifyKeys(doc))
		if err != nil {
			return fmt.Errorf("parse config (yaml): %w", err)
		}
		data = jb
	}
	if err := decodeStrict(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// stringifyKeys rewrites the map[any]any nodes the yaml decoder produces
// for non-string keys into map[string]any, which json.Marshal requires.
func stringifyKeys(v any) any {
	switch node := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, val := range node {
			out[fmt.Sprint(k)] = stringifyKeys(val)
		}
		return out
	case map[string]any:
		for k, val := range node {
			node[k] = stringifyKeys(val)
		}
		return node
	case []any:
		for i, val := range node {
			node[i] = stringifyKeys(val)
		}
		return node
	}
	return v
}
