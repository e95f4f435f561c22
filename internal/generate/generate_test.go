// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/modelrun"
)

type fakeConfig struct {
	writeFile    string
	materializes int
	fail         bool
}

func (f *fakeConfig) ModelType() string { return "fake" }

func (f *fakeConfig) Materialize(container *modelrun.Container, stagingDir string) error {
	f.materializes++
	if f.fail {
		return assert.AnError
	}
	return os.WriteFile(filepath.Join(stagingDir, f.writeFile), []byte("data"), 0o644)
}

func newContainer(t *testing.T, cfg modelrun.ModelConfig, deleteExisting bool) *modelrun.Container {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return &modelrun.Container{
		RunID:          "t1",
		Period:         modelrun.TimeRange{Start: start, End: start.Add(time.Hour), Interval: time.Minute},
		OutputDir:      t.TempDir(),
		Config:         cfg,
		DeleteExisting: deleteExisting,
	}
}

func TestRun_HappyPath(t *testing.T) {
	cfg := &fakeConfig{writeFile: "input.txt"}
	container := newContainer(t, cfg, false)

	staging, err := Run(container)
	require.NoError(t, err)
	assert.Equal(t, container.StagingDir(), staging)

	_, err = os.Stat(filepath.Join(staging, "input.txt"))
	require.NoError(t, err)
}

func TestRun_MaterializeFailure(t *testing.T) {
	cfg := &fakeConfig{fail: true}
	container := newContainer(t, cfg, false)

	_, err := Run(container)
	require.Error(t, err)
}

func TestRun_IdempotentWithDeleteExisting(t *testing.T) {
	cfg := &fakeConfig{writeFile: "input.txt"}
	container := newContainer(t, cfg, true)

	staging1, err := Run(container)
	require.NoError(t, err)
	stray := filepath.Join(staging1, "stray-leftover.txt")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	staging2, err := Run(container)
	require.NoError(t, err)
	assert.Equal(t, staging1, staging2)

	_, err = os.Stat(stray)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 2, cfg.materializes)
}

func TestValidate_NonEmptyStaging(t *testing.T) {
	cfg := &fakeConfig{writeFile: "input.txt"}
	container := newContainer(t, cfg, false)

	_, err := Run(container)
	require.NoError(t, err)
	require.NoError(t, Validate(container))
}

func TestValidate_EmptyStagingFails(t *testing.T) {
	container := newContainer(t, &fakeConfig{}, false)
	require.NoError(t, os.MkdirAll(container.StagingDir(), 0o755))

	err := Validate(container)
	require.Error(t, err)
}
