// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/registry"
)

func TestRegisterBuiltins(t *testing.T) {
	r := registry.New()
	require.NoError(t, RegisterBuiltins(r))
	assert.ElementsMatch(t, []string{"archive", "metrics", "noop"}, r.Names(registry.KindPostprocessor))
}

func TestNewNoopFromSubtree(t *testing.T) {
	p, err := newNoopFromSubtree(map[string]any{
		"expected_files": []any{"a.txt", "b.txt"},
	})
	require.NoError(t, err)
	noop, ok := p.(*NoopProcessor)
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt", "b.txt"}, noop.cfg.ExpectedFiles)
}

func TestNewMetricsFromSubtree(t *testing.T) {
	p, err := newMetricsFromSubtree(map[string]any{
		"output_subdir": "metrics_out",
	})
	require.NoError(t, err)
	assert.Equal(t, "metrics", p.ProcessorType())
}

func TestNewArchiveFromSubtree(t *testing.T) {
	p, err := newArchiveFromSubtree(map[string]any{
		"archive_path": "/tmp/out.tar.gz",
		"excludes":     []any{"scratch"},
	})
	require.NoError(t, err)
	archive, ok := p.(*ArchiveProcessor)
	require.True(t, ok)
	assert.Equal(t, "/tmp/out.tar.gz", archive.cfg.ArchivePath)
}
