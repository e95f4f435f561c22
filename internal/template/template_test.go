// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/errs"
)

func TestExpand_PlainVar(t *testing.T) {
	v, err := Expand("${NAME}", map[string]string{"NAME": "swan"})
	require.NoError(t, err)
	assert.Equal(t, "swan", v)
}

func TestExpand_Default(t *testing.T) {
	v, err := Expand("${OUT:-./default}", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "./default", v)
}

func TestExpand_DefaultWithPresentVar(t *testing.T) {
	v, err := Expand("${OUT:-./default}", map[string]string{"OUT": "./custom"})
	require.NoError(t, err)
	assert.Equal(t, "./custom", v)
}

func TestExpand_Undefined(t *testing.T) {
	_, err := Expand("${MISSING}", map[string]string{})
	require.Error(t, err)
	var templErr *errs.TemplateError
	require.ErrorAs(t, err, &templErr)
	assert.Equal(t, errs.TemplateUndefined, templErr.Kind)
}

func TestExpand_StrftimeChain(t *testing.T) {
	env := map[string]string{"CYCLE": "2023-01-15T00:00:00"}
	v, err := Expand("${CYCLE|as_datetime|strftime:%Y%m%d}", env)
	require.NoError(t, err)
	assert.Equal(t, "20230115", v)
}

func TestExpand_StrftimeDirectlyOnRawString(t *testing.T) {
	// strftime must accept the raw env string directly, with no preceding
	// as_datetime in the chain: a plain ${CYCLE|strftime:%Y%m%d} is the
	// documented template-defaults scenario.
	env := map[string]string{"CYCLE": "2023-01-15T00:00:00"}
	v, err := Expand("${CYCLE|strftime:%Y%m%d}", env)
	require.NoError(t, err)
	assert.Equal(t, "20230115", v)
}

func TestExpand_StrftimeOnNonDatetimeString(t *testing.T) {
	env := map[string]string{"NAME": "swan"}
	_, err := Expand("${NAME|strftime:%Y%m%d}", env)
	require.Error(t, err)
	var templErr *errs.TemplateError
	require.ErrorAs(t, err, &templErr)
	assert.Equal(t, errs.TemplateTypeMismatch, templErr.Kind)
}

func TestExpand_EmbeddedExpressionsYieldString(t *testing.T) {
	env := map[string]string{"OUT": "", "CYCLE": "2023-01-15T00:00:00"}
	v, err := Expand("${OUT:-./default}/${CYCLE|as_datetime|strftime:%Y%m%d}", env)
	require.NoError(t, err)
	assert.Equal(t, "./default/20230115", v)
}

func TestExpand_Shift(t *testing.T) {
	env := map[string]string{"START": "2023-01-01T00:00:00"}
	v, err := Expand("${START|as_datetime|shift:+1d}", env)
	require.NoError(t, err)
	tt, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2, tt.Day())
}

func TestExpand_ShiftNegative(t *testing.T) {
	env := map[string]string{"START": "2023-01-01T00:00:00"}
	v, err := Expand("${START|as_datetime|shift:-6h}", env)
	require.NoError(t, err)
	tt, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2022, tt.Year())
	assert.Equal(t, time.December, tt.Month())
	assert.Equal(t, 31, tt.Day())
	assert.Equal(t, 18, tt.Hour())
}

func TestExpand_UnknownFilter(t *testing.T) {
	env := map[string]string{"X": "1"}
	_, err := Expand("${X|bogus}", env)
	require.Error(t, err)
	var templErr *errs.TemplateError
	require.ErrorAs(t, err, &templErr)
	assert.Equal(t, errs.TemplateUnknownFilter, templErr.Kind)
}

func TestExpand_BadDatetime(t *testing.T) {
	env := map[string]string{"X": "not-a-date"}
	_, err := Expand("${X|as_datetime}", env)
	require.Error(t, err)
	var templErr *errs.TemplateError
	require.ErrorAs(t, err, &templErr)
	assert.Equal(t, errs.TemplateBadDatetime, templErr.Kind)
}

func TestExpand_TypeMismatch(t *testing.T) {
	env := map[string]string{"X": "hello"}
	_, err := Expand("${X|strftime:%Y}", env)
	require.Error(t, err)
	var templErr *errs.TemplateError
	require.ErrorAs(t, err, &templErr)
	assert.Equal(t, errs.TemplateTypeMismatch, templErr.Kind)
}

func TestExpand_NestedDocument(t *testing.T) {
	doc := map[string]any{
		"run_id": "t1",
		"config": map[string]any{
			"model_type": "noop_model",
			"grid_name":  "${GRID}",
		},
		"tags": []any{"${TAG1}", "static"},
	}
	env := map[string]string{"GRID": "coastal", "TAG1": "v1"}

	v, err := Expand(doc, env)
	require.NoError(t, err)

	m := v.(map[string]any)
	assert.Equal(t, "t1", m["run_id"])
	cfg := m["config"].(map[string]any)
	assert.Equal(t, "coastal", cfg["grid_name"])
	tags := m["tags"].([]any)
	assert.Equal(t, "v1", tags[0])
	assert.Equal(t, "static", tags[1])
}

func TestExpand_NoTemplatesPassThrough(t *testing.T) {
	v, err := Expand("plain string", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "plain string", v)

	n, err := Expand(42, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
