// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/errs"
)

func TestRegister_DuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(KindModelConfig, "noop_model", func() {}))

	err := r.Register(KindModelConfig, "noop_model", func() {})
	require.Error(t, err)
	var pluginErr *errs.PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Equal(t, errs.PluginDuplicateName, pluginErr.Kind)
}

func TestLookup_UnknownPlugin(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(KindModelConfig, "noop_model", func() {}))

	_, err := r.Lookup(KindModelConfig, "zzz")
	require.Error(t, err)
	var pluginErr *errs.PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Equal(t, errs.PluginUnknownPlugin, pluginErr.Kind)
	assert.Equal(t, []string{"noop_model"}, pluginErr.Available)
}

func TestLookup_Found(t *testing.T) {
	r := New()
	sentinel := func() string { return "factory" }
	require.NoError(t, r.Register(KindRunBackend, "local", sentinel))

	f, err := r.Lookup(KindRunBackend, "local")
	require.NoError(t, err)
	fn, ok := f.(func() string)
	require.True(t, ok)
	assert.Equal(t, "factory", fn())
}

func TestNames_StableAlphabeticalOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(KindPostprocessor, "zeta", 1))
	require.NoError(t, r.Register(KindPostprocessor, "alpha", 2))
	require.NoError(t, r.Register(KindPostprocessor, "mid", 3))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names(KindPostprocessor))
}

func TestNames_EmptyKind(t *testing.T) {
	r := New()
	assert.Empty(t, r.Names(KindDataSource))
}
