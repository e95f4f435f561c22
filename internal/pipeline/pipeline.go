// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline implements the Pipeline Coordinator: driving Generate,
// Run, and Postprocess for one Model-Run Container in order, applying the
// validate_stages gate and cleanup_on_failure policy, and producing a
// single aggregated Pipeline Result. Execute is the shared algorithm both
// pipeline-backend variants (sequential, temporal) drive their stages
// through, mirroring how the teacher's PipelineWorkflow sequences child
// workflows while delegating the real work to activities.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/datasource"
	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/generate"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
	"github.com/oceanrun/oceanrun/internal/postprocess"
)

// Options governs the Pipeline Coordinator's stage-gating, cleanup, and
// history-recording behavior, set per invocation rather than per Model-Run
// Container since they describe how the pipeline runs rather than what it
// runs. DataSource is optional; a nil DataSource simply means no run-history
// record is written.
type Options struct {
	ValidateStages   bool
	CleanupOnFailure bool
	DataSource       datasource.DataSource
}

// PipelineBackend is the capability each pipeline-backend variant exposes:
// drive container through Generate/Run/Postprocess using runBackend and
// processor, honoring opts.
type PipelineBackend interface {
	PipelineBackendType() string
	Run(ctx context.Context, container *modelrun.Container, runBackend backend.Backend, processor postprocess.Processor, opts Options) (*modelrun.Result, error)
}

// Factory constructs a PipelineBackend from a config subtree.
type Factory func(subtree map[string]any) (PipelineBackend, error)

// Execute drives container through Generate, Run, and Postprocess in
// order, implementing the Pipeline Coordinator's algorithm from start to
// finish:
//  1. Validate the container and acquire its staging directory's advisory
//     lock.
//  2. Generate; on failure, apply cleanup_on_failure and return.
//  3. If ValidateStages, perform the lightweight post-Generate check.
//  4. Run with runBackend; on failure, apply cleanup_on_failure and return.
//  5. Postprocess with processor; failure is recorded on the Result but
//     never triggers cleanup on its own.
//  6. Return the aggregated Result, success iff all three stages completed.
//
// ctx cancellation is honored at each stage boundary; mid-Run cancellation
// is the Run backend's own responsibility (it drives the
// graceful-then-forcible termination sequence internally).
func Execute(ctx context.Context, container *modelrun.Container, runBackend backend.Backend, processor postprocess.Processor, opts Options) (result *modelrun.Result, err error) {
	log := logger.GetPipelineLogger()
	result = &modelrun.Result{RunID: container.RunID, StagesCompleted: []string{}}
	startedAt := time.Now()

	if opts.DataSource != nil {
		defer func() {
			record := datasource.FromResult(result, startedAt, time.Now())
			if saveErr := opts.DataSource.SaveRun(context.Background(), record); saveErr != nil {
				log.Warn().Str("run_id", container.RunID).Err(saveErr).Msg("failed to save run-history record")
			}
		}()
	}

	if err := container.Validate(); err != nil {
		result.Error = err.Error()
		return result, err
	}

	lock, err := acquireLock(container.StagingDir(), container.RunID)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	defer lock.release()

	cleanup := func() {
		if !opts.CleanupOnFailure {
			return
		}
		log.Warn().Str("run_id", container.RunID).Msg("cleanup_on_failure: removing staging directory")
		_ = os.RemoveAll(container.StagingDir())
	}

	if err := ctx.Err(); err != nil {
		result.Error = "cancelled before generate"
		cleanup()
		return result, &errs.RunError{Kind: errs.RunCancelled, Cause: err}
	}

	if _, err := generate.Run(container); err != nil {
		result.Error = err.Error()
		cleanup()
		return result, err
	}
	result.MarkStage(modelrun.StageGenerate)

	if opts.ValidateStages {
		if err := generate.Validate(container); err != nil {
			result.Error = err.Error()
			cleanup()
			return result, err
		}
	}

	if err := ctx.Err(); err != nil {
		result.Error = "cancelled before run"
		cleanup()
		return result, &errs.RunError{Kind: errs.RunCancelled, Cause: err}
	}

	runResult, err := runBackend.Execute(ctx, container)
	if err != nil {
		result.Error = err.Error()
		cleanup()
		return result, err
	}
	if runResult == nil || !runResult.Success {
		result.Error = "run stage did not succeed"
		cleanup()
		return result, &errs.RunError{Kind: errs.RunNonZeroExit}
	}
	result.MarkStage(modelrun.StageRun)

	postResult, postErr := postprocess.Run(processor, container)
	result.PostprocessResult = postResult
	if postErr != nil {
		result.Error = postErr.Error()
		log.Warn().Str("run_id", container.RunID).Msg("postprocess failed; outputs retained")
		return result, postErr
	}
	result.MarkStage(modelrun.StagePostprocess)

	result.Success = true
	log.Info().Str("run_id", container.RunID).Strs("stages_completed", result.StagesCompleted).Msg("pipeline complete")
	return result, nil
}
