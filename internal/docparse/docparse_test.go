// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package docparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	doc := []byte(`
run_id: t1
period:
  start: 2023-01-01T00:00:00
  duration: 1d
config:
  model_type: noop_model
  grid:
    nx: 10
    ny: 20
`)
	v, err := Parse(doc, FormatYAML)
	require.NoError(t, err)

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "t1", m["run_id"])

	nx, ok := Lookup(v, "config.grid.nx")
	require.True(t, ok)
	assert.EqualValues(t, 10, nx)
}

func TestParse_JSON(t *testing.T) {
	doc := []byte(`{"run_id": "t1", "config": {"model_type": "noop_model"}}`)
	v, err := Parse(doc, FormatJSON)
	require.NoError(t, err)

	mt, ok := Lookup(v, "config.model_type")
	require.True(t, ok)
	assert.Equal(t, "noop_model", mt)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("key: [unterminated"), FormatYAML)
	require.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("run.JSON"))
	assert.Equal(t, FormatYAML, DetectFormat("run.yaml"))
	assert.Equal(t, FormatYAML, DetectFormat("run.yml"))
}

func TestLookup_Missing(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}}
	_, ok := Lookup(doc, "a.c")
	assert.False(t, ok)

	_, ok = Lookup(doc, "a.b.c")
	assert.False(t, ok)
}

func TestAsMap(t *testing.T) {
	m, err := AsMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = AsMap("not-a-map")
	require.Error(t, err)
}
