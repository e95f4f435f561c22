// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/registry"
)

func TestRegisterBuiltins(t *testing.T) {
	r := registry.New()
	require.NoError(t, RegisterBuiltins(r))
	assert.ElementsMatch(t, []string{"localfs", "gorm"}, r.Names(registry.KindDataSource))
}

func TestNewLocalfsFromSubtree(t *testing.T) {
	ds, err := newLocalfsFromSubtree(map[string]any{"root": t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "localfs", ds.DataSourceType())
}

func TestNewGormFromSubtree(t *testing.T) {
	ds, err := newGormFromSubtree(map[string]any{
		"driver":   "sqlite",
		"database": ":memory:",
	})
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, "gorm", ds.DataSourceType())
}

func TestIntField(t *testing.T) {
	assert.Equal(t, 5432, intField(5432))
	assert.Equal(t, 5432, intField(int64(5432)))
	assert.Equal(t, 5432, intField(float64(5432)))
	assert.Equal(t, 0, intField("nope"))
}
