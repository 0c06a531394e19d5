package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadVarsFile reads template variables from a YAML or JSON file. The top
// level must be a mapping.
func loadVarsFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vars file: %w", err)
	}

	vars := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var raw map[string]interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for name, value := range raw {
			vars[name] = fromJSON(value)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported vars file %s: expected .yaml, .yml or .json", path)
	}
	return vars, nil
}

// fromJSON turns json.Number into int64 or float64 so integers keep integer
// semantics in templates
func fromJSON(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		for i := range v {
			v[i] = fromJSON(v[i])
		}
		return v
	case map[string]interface{}:
		for k := range v {
			v[k] = fromJSON(v[k])
		}
		return v
	default:
		return v
	}
}

// parseAssignment splits a --var flag of the form name=value
func parseAssignment(assignment string) (string, interface{}, error) {
	name, value, ok := strings.Cut(assignment, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("expected name=value, got %q", assignment)
	}
	if !isIdentifier(name) {
		return "", nil, fmt.Errorf("%q is not a valid identifier", name)
	}
	return name, parseScalar(value), nil
}

// parseScalar reads value as a YAML scalar or flow collection, so 3 is an
// int, true a bool and [1, 2] a list. Anything YAML rejects stays a string.
func parseScalar(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return value
	}
	var parsed interface{}
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
		if strings.TrimSpace(value) == "null" || strings.TrimSpace(value) == "~" {
			return nil
		}
		return value
	}
	return parsed
}

func isIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return name != ""
}
