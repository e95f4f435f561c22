// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docparse parses configuration documents (YAML or JSON) into a
// generic tree of maps, slices, and scalars, ready for template expansion
// and config resolution. It does not itself validate structure beyond what
// is needed to decode the bytes.
package docparse

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oceanrun/oceanrun/internal/errs"
)

// Format identifies the serialization of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DetectFormat guesses a document's format from its file extension,
// defaulting to YAML when the extension is unrecognized.
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes raw document bytes into a generic node tree: map[string]any
// for mappings, []any for sequences, and string/int/float64/bool/nil for
// scalars.
func Parse(data []byte, format Format) (any, error) {
	var raw any

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: fmt.Errorf("decode json: %w", err)}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: fmt.Errorf("decode yaml: %w", err)}
		}
	default:
		return nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: fmt.Errorf("unsupported format: %s", format)}
	}

	return normalize(raw), nil
}

// ParseFile reads and parses a configuration document from disk, inferring
// its format from the file extension.
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: fmt.Errorf("read %s: %w", path, err)}
	}
	return Parse(data, DetectFormat(path))
}

// normalize walks a decoded tree and converts yaml.v3's
// map[string]interface{} (already produced for mapping nodes when the
// target is `any`) plus any nested []interface{} into a canonical shape:
// map[string]any and []any throughout, recursing into both.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// Lookup resolves a dotted path (e.g. "config.grid.nx") against a decoded
// node tree, returning the value and whether it was found.
func Lookup(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		val, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = val
	}
	return cur, true
}

// AsMap type-asserts a node as a mapping, returning an empty map rather
// than failing when the node is nil (absent optional subtree).
func AsMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
	return m, nil
}

// AsString type-asserts a node as a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
