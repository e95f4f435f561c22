// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modelrun defines the Model-Run Container: the atomic unit driven
// by the pipeline, holding a resolved configuration, time range, run
// identifier, and output directory.
package modelrun

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// ModelConfig is the minimal capability every Model Configuration variant
// must expose to the core. Variant-specific fields live behind the concrete
// type; the pipeline only ever calls ModelType and Materialize.
type ModelConfig interface {
	ModelType() string
	Materialize(container *Container, stagingDir string) error
}

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// TimeRange describes the simulation period a Model-Run Container covers.
type TimeRange struct {
	Start    time.Time
	End      time.Time
	Interval time.Duration
}

// Duration returns End.Sub(Start).
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Validate enforces end > start and interval > 0.
func (tr TimeRange) Validate() error {
	if !tr.End.After(tr.Start) {
		return fmt.Errorf("period: end must be after start (start=%s end=%s)", tr.Start, tr.End)
	}
	if tr.Interval <= 0 {
		return fmt.Errorf("period: interval must be positive, got %s", tr.Interval)
	}
	return nil
}

// Container is the Model-Run Container: the resolved, immutable unit of
// work the Pipeline Coordinator drives through Generate, Run, and
// Postprocess.
type Container struct {
	RunID          string
	Period         TimeRange
	OutputDir      string
	Config         ModelConfig
	DeleteExisting bool
}

// Validate enforces the Model-Run Container's invariants: a filesystem-safe
// non-empty run_id, a valid period, and a writable output_dir (created if
// absent).
func (c *Container) Validate() error {
	if c.RunID == "" {
		return fmt.Errorf("run_id must not be empty")
	}
	if !runIDPattern.MatchString(c.RunID) {
		return fmt.Errorf("run_id %q is not filesystem-safe", c.RunID)
	}
	if err := c.Period.Validate(); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("output_dir %q is not writable: %w", c.OutputDir, err)
	}
	return nil
}

// StagingDir returns output_dir/run_id, the per-run directory Generate
// populates and Run executes within.
func (c *Container) StagingDir() string {
	return filepath.Join(c.OutputDir, c.RunID)
}

// Stage names used in Pipeline Result's stages_completed, in pipeline order.
const (
	StageGenerate    = "generate"
	StageRun         = "run"
	StagePostprocess = "postprocess"
)

// Result is the Pipeline Result: the aggregate record summarizing one
// end-to-end pipeline execution.
type Result struct {
	Success            bool
	RunID              string
	StagesCompleted    []string
	Error              string
	PostprocessResult  map[string]any
}

// MarkStage appends a completed stage name, preserving pipeline order.
func (r *Result) MarkStage(stage string) {
	r.StagesCompleted = append(r.StagesCompleted, stage)
}
