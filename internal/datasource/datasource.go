// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package datasource implements the run-history data source plugin kind: a
// read-only-from-the-pipeline's-perspective record of each Pipeline Result,
// persisted by whichever variant a deployment chooses. Nothing in the core
// pipeline depends on a data source being configured; its absence never
// blocks a run.
package datasource

import (
	"context"
	"time"

	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// RunRecord is the durable record of one pipeline execution, derived from a
// modelrun.Result plus the bookkeeping fields (timestamps) the result itself
// has no reason to carry.
type RunRecord struct {
	RunID              string
	Success            bool
	StagesCompleted    []string
	Error              string
	PostprocessResult  map[string]any
	StartedAt          time.Time
	FinishedAt         time.Time
}

// FromResult builds a RunRecord from a Pipeline Result and the timestamps
// bracketing its execution.
func FromResult(result *modelrun.Result, startedAt, finishedAt time.Time) RunRecord {
	return RunRecord{
		RunID:             result.RunID,
		Success:           result.Success,
		StagesCompleted:   result.StagesCompleted,
		Error:             result.Error,
		PostprocessResult: result.PostprocessResult,
		StartedAt:         startedAt,
		FinishedAt:        finishedAt,
	}
}

// DataSource is the run-history data source contract. SaveRun is called
// once, after a pipeline run finishes (regardless of outcome); GetRun
// supports later lookup by run ID.
type DataSource interface {
	DataSourceType() string
	SaveRun(ctx context.Context, record RunRecord) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	Close() error
}

// Factory constructs a DataSource from a parsed config subtree.
type Factory func(subtree map[string]any) (DataSource, error)
