// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/registry"
)

func TestRegisterBuiltins(t *testing.T) {
	r := registry.New()
	require.NoError(t, RegisterBuiltins(r))
	assert.ElementsMatch(t, []string{"docker", "local", "slurm"}, r.Names(registry.KindRunBackend))
}

func TestNewLocalFromSubtree(t *testing.T) {
	b, err := newLocalFromSubtree(map[string]any{
		"command":        []any{"/bin/echo", "hi"},
		"shell":          false,
		"capture_output": true,
	})
	require.NoError(t, err)
	local, ok := b.(*LocalBackend)
	require.True(t, ok)
	assert.Equal(t, []string{"/bin/echo", "hi"}, local.cfg.Command)
	assert.True(t, local.cfg.CaptureOutput)
}

func TestNewSlurmFromSubtree(t *testing.T) {
	b, err := newSlurmFromSubtree(map[string]any{
		"queue":      "compute",
		"nodes":      2,
		"time_limit": "01:00:00",
		"executable": []any{"./run.sh"},
	})
	require.NoError(t, err)
	assert.Equal(t, "slurm", b.BackendType())
}

func TestParseCommonConfig(t *testing.T) {
	cfg := parseCommonConfig(map[string]any{
		"timeout_seconds":      30,
		"grace_period_seconds": 7,
		"working_dir":          "/tmp/work",
		"env_vars":             map[string]any{"FOO": "bar"},
	})
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, "/tmp/work", cfg.WorkingDir)
	assert.Equal(t, "bar", cfg.EnvVars["FOO"])
}
