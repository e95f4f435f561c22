// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package sequential

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ibackend "github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/modelrun"
	"github.com/oceanrun/oceanrun/internal/pipeline"
)

type fakeConfig struct{}

func (fakeConfig) ModelType() string { return "fake" }
func (fakeConfig) Materialize(_ *modelrun.Container, stagingDir string) error {
	return os.WriteFile(filepath.Join(stagingDir, "input.txt"), []byte("data"), 0o644)
}

type fakeBackend struct{}

func (fakeBackend) BackendType() string { return "fake" }
func (fakeBackend) Execute(context.Context, *modelrun.Container) (*ibackend.Result, error) {
	return &ibackend.Result{Success: true, State: ibackend.StateSucceeded}, nil
}

type fakeProcessor struct{}

func (fakeProcessor) ProcessorType() string { return "fake" }
func (fakeProcessor) Process(*modelrun.Container) map[string]any {
	return map[string]any{"success": true}
}

func TestBackend_Run(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	container := &modelrun.Container{
		RunID:     "run1",
		Period:    modelrun.TimeRange{Start: start, End: start.Add(time.Hour), Interval: time.Minute},
		OutputDir: t.TempDir(),
		Config:    fakeConfig{},
	}

	b := New()
	assert.Equal(t, "sequential", b.PipelineBackendType())

	result, err := b.Run(context.Background(), container, fakeBackend{}, fakeProcessor{}, pipeline.Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)
}
