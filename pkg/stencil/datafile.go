package stencil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// decodeFile decodes a YAML, TOML or JSON file into v, chosen by extension.
func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeBytes(data, filepath.Ext(path), v)
}

func decodeBytes(data []byte, ext string, v interface{}) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("invalid TOML: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported data format %q", ext)
	}
	return nil
}

// LoadData reads a render context from a YAML, TOML or JSON file. Values are
// normalized to the kinds the resolver understands: dates become RFC3339 strings
// and JSON numbers become int or float64.
func LoadData(path string) (TemplateData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return ParseData(data, filepath.Ext(path))
}

// ParseData decodes a render context from bytes in the format named by ext
// (".yaml", ".yml", ".toml" or ".json").
func ParseData(data []byte, ext string) (TemplateData, error) {
	raw := make(map[string]interface{})
	if err := decodeBytes(data, ext, &raw); err != nil {
		return nil, err
	}
	normalized, _ := normalizeValue(raw).(map[string]interface{})
	return TemplateData(normalized), nil
}

// normalizeValue converts decoder output into resolver-conforming values.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return fmt.Sprint(val)
	default:
		return v
	}
}
