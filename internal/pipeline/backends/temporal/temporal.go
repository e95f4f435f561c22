// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package temporal implements the optional durable pipeline backend: the
// same Generate/Run/Postprocess sequence as the sequential backend, driven
// through a single Temporal workflow execution for durability, automatic
// retry, and visibility, without distributing the job across hosts. It
// still submits exactly one model run, so it does not violate oceanrun's
// single-job-per-host scope.
package temporal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/datasource"
	"github.com/oceanrun/oceanrun/internal/generate"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
	ipipeline "github.com/oceanrun/oceanrun/internal/pipeline"
	"github.com/oceanrun/oceanrun/internal/postprocess"
)

// WorkflowName is the name the workflow registers and is looked up under.
const WorkflowName = "PipelineWorkflow"

// containerRegistry holds in-flight containers keyed by run ID. The
// "temporal" pipeline backend's worker always runs in the same process as
// the caller (it adds durability/retry/visibility, not distributed
// execution across hosts), so activities look the container up here rather
// than requiring it to round-trip through Temporal's data converter — a
// Model Configuration's concrete type is resolved from the Plugin Registry
// at runtime and is not a stable wire type.
var containerRegistry sync.Map // run_id (string) -> *modelrun.Container

func storeContainer(c *modelrun.Container)  { containerRegistry.Store(c.RunID, c) }
func dropContainer(runID string)            { containerRegistry.Delete(runID) }
func loadContainer(runID string) (*modelrun.Container, error) {
	v, ok := containerRegistry.Load(runID)
	if !ok {
		return nil, fmt.Errorf("container for run %q not registered with the temporal pipeline backend", runID)
	}
	return v.(*modelrun.Container), nil
}

// Activities binds the Run backend and Postprocessor for one worker,
// mirroring the teacher's pattern of struct-bound activity methods (e.g.
// activities.GitActivities) rather than activities that reconstruct their
// dependencies per call.
type Activities struct {
	RunBackend backend.Backend
	Processor  postprocess.Processor
}

// GenerateActivity runs the Generate stage for runID's registered container.
func (a *Activities) GenerateActivity(ctx context.Context, runID string) error {
	container, err := loadContainer(runID)
	if err != nil {
		return err
	}
	_, err = generate.Run(container)
	return err
}

// ValidateActivity runs the validate_stages post-Generate check.
func (a *Activities) ValidateActivity(ctx context.Context, runID string) error {
	container, err := loadContainer(runID)
	if err != nil {
		return err
	}
	return generate.Validate(container)
}

// RunActivity runs the Run stage and reports whether it succeeded.
func (a *Activities) RunActivity(ctx context.Context, runID string) (bool, error) {
	container, err := loadContainer(runID)
	if err != nil {
		return false, err
	}
	result, err := a.RunBackend.Execute(ctx, container)
	if err != nil {
		return false, err
	}
	return result != nil && result.Success, nil
}

// PostprocessActivity runs the Postprocess stage and returns its result map.
func (a *Activities) PostprocessActivity(ctx context.Context, runID string) (map[string]any, error) {
	container, err := loadContainer(runID)
	if err != nil {
		return nil, err
	}
	return postprocess.Run(a.Processor, container)
}

// RegisterWith registers the workflow and activities bound to activities
// with w.
func RegisterWith(w worker.Worker, activities *Activities) {
	w.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivity(activities.GenerateActivity)
	w.RegisterActivity(activities.ValidateActivity)
	w.RegisterActivity(activities.RunActivity)
	w.RegisterActivity(activities.PostprocessActivity)
}

// WorkflowInput is the durable record of one pipeline execution's
// parameters; it carries the run ID rather than the Container itself (see
// containerRegistry).
type WorkflowInput struct {
	RunID          string
	ValidateStages bool
}

// WorkflowOutput is the wire-safe subset of modelrun.Result the workflow
// returns.
type WorkflowOutput struct {
	Success           bool
	StagesCompleted   []string
	Error             string
	PostprocessResult map[string]any
}

// Workflow sequences Generate -> Run -> Postprocess as three activities in
// one workflow execution, following the teacher's PipelineWorkflow
// phase-by-phase structure but without child workflows: oceanrun's
// pipeline stays a single job per host, so there is nothing here to
// distribute across task queues.
func Workflow(ctx workflow.Context, input WorkflowInput) (*WorkflowOutput, error) {
	log := workflow.GetLogger(ctx)
	output := &WorkflowOutput{}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Hour,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	log.Info("pipeline: generate", "run_id", input.RunID)
	if err := workflow.ExecuteActivity(ctx, "GenerateActivity", input.RunID).Get(ctx, nil); err != nil {
		output.Error = err.Error()
		return output, err
	}
	output.StagesCompleted = append(output.StagesCompleted, modelrun.StageGenerate)

	if input.ValidateStages {
		if err := workflow.ExecuteActivity(ctx, "ValidateActivity", input.RunID).Get(ctx, nil); err != nil {
			output.Error = err.Error()
			return output, err
		}
	}

	log.Info("pipeline: run", "run_id", input.RunID)
	var runSucceeded bool
	if err := workflow.ExecuteActivity(ctx, "RunActivity", input.RunID).Get(ctx, &runSucceeded); err != nil {
		output.Error = err.Error()
		return output, err
	}
	if !runSucceeded {
		output.Error = "run stage did not succeed"
		return output, temporal.NewApplicationError(output.Error, "RunFailed")
	}
	output.StagesCompleted = append(output.StagesCompleted, modelrun.StageRun)

	log.Info("pipeline: postprocess", "run_id", input.RunID)
	var postResult map[string]any
	postErr := workflow.ExecuteActivity(ctx, "PostprocessActivity", input.RunID).Get(ctx, &postResult)
	output.PostprocessResult = postResult
	if postErr != nil {
		output.Error = postErr.Error()
		return output, postErr
	}
	output.StagesCompleted = append(output.StagesCompleted, modelrun.StagePostprocess)

	output.Success = true
	return output, nil
}

// Backend is the "temporal" pipeline-backend variant.
type Backend struct {
	client    client.Client
	taskQueue string
}

// New constructs a Backend bound to an already-connected Temporal client
// and task queue.
func New(c client.Client, taskQueue string) *Backend {
	return &Backend{client: c, taskQueue: taskQueue}
}

func (*Backend) PipelineBackendType() string { return "temporal" }

// Run registers container so the workflow's activities can find it, starts
// the workflow, and blocks until it completes.
func (b *Backend) Run(ctx context.Context, container *modelrun.Container, runBackend backend.Backend, processor postprocess.Processor, opts ipipeline.Options) (result *modelrun.Result, err error) {
	startedAt := time.Now()
	if opts.DataSource != nil {
		defer func() {
			if result == nil {
				return
			}
			record := datasource.FromResult(result, startedAt, time.Now())
			if saveErr := opts.DataSource.SaveRun(context.Background(), record); saveErr != nil {
				logger.GetPipelineLogger().Warn().Str("run_id", container.RunID).Err(saveErr).Msg("failed to save run-history record")
			}
		}()
	}

	if err := container.Validate(); err != nil {
		return &modelrun.Result{RunID: container.RunID, Error: err.Error()}, err
	}

	lock, err := ipipeline.AcquireLock(container.StagingDir(), container.RunID)
	if err != nil {
		return &modelrun.Result{RunID: container.RunID, Error: err.Error()}, err
	}
	defer lock.Release()

	storeContainer(container)
	defer dropContainer(container.RunID)

	we, err := b.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "oceanrun-pipeline-" + container.RunID,
		TaskQueue: b.taskQueue,
	}, WorkflowName, WorkflowInput{RunID: container.RunID, ValidateStages: opts.ValidateStages})
	if err != nil {
		return &modelrun.Result{RunID: container.RunID, Error: err.Error()}, fmt.Errorf("start pipeline workflow: %w", err)
	}

	var output WorkflowOutput
	getErr := we.Get(ctx, &output)

	result = &modelrun.Result{
		Success:           output.Success,
		RunID:             container.RunID,
		StagesCompleted:   output.StagesCompleted,
		Error:             output.Error,
		PostprocessResult: output.PostprocessResult,
	}

	failedBeforePostprocess := !output.Success && !containsStage(output.StagesCompleted, modelrun.StagePostprocess)
	if opts.CleanupOnFailure && failedBeforePostprocess {
		_ = os.RemoveAll(container.StagingDir())
	}

	if getErr != nil {
		if result.Error == "" {
			result.Error = getErr.Error()
		}
		return result, getErr
	}
	if !output.Success {
		return result, fmt.Errorf("%s", output.Error)
	}
	return result, nil
}

func containsStage(stages []string, stage string) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}
