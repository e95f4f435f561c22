// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
)

var timeLimitPattern = regexp.MustCompile(`^\d+:\d{2}:\d{2}$`)

// DefaultPollInterval is used when a SlurmConfig leaves PollInterval unset.
const DefaultPollInterval = 10 * time.Second

// Submitter is the narrow command surface the SLURM backend needs: submit
// a script and return its job ID, and query a job's terminal state. The
// default implementation shells out to sbatch/squeue; tests substitute a
// fake.
type Submitter interface {
	Submit(ctx context.Context, scriptPath string) (jobID string, err error)
	Poll(ctx context.Context, jobID string) (state string, err error)
	Cancel(ctx context.Context, jobID string) error
}

// SlurmConfig configures the SLURM backend: script generation and
// submission parameters.
type SlurmConfig struct {
	CommonConfig
	Queue         string
	Nodes         int
	TimeLimit     string
	TasksPerNode  int
	Executable    []string
	PollInterval  time.Duration
	ScriptHeader  string
}

// Validate enforces the SLURM backend's config-time invariants: a
// HH:MM:SS time limit, a required queue, and node count in [1, 100].
func (c SlurmConfig) Validate() error {
	if c.Queue == "" {
		return fmt.Errorf("slurm backend: queue is required")
	}
	if c.Nodes < 1 || c.Nodes > 100 {
		return fmt.Errorf("slurm backend: nodes must be in [1, 100], got %d", c.Nodes)
	}
	if c.TimeLimit == "" || !timeLimitPattern.MatchString(c.TimeLimit) {
		return fmt.Errorf("slurm backend: time_limit %q must match HH:MM:SS", c.TimeLimit)
	}
	if len(c.Executable) == 0 {
		return fmt.Errorf("slurm backend: executable must not be empty")
	}
	return nil
}

func (c SlurmConfig) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	if c.PollInterval < 5*time.Second {
		return 5 * time.Second
	}
	if c.PollInterval > 30*time.Second {
		return 30 * time.Second
	}
	return c.PollInterval
}

// Terminal SLURM job states, as reported by squeue/sacct.
const (
	slurmStateCompleted = "COMPLETED"
	slurmStateFailed    = "FAILED"
	slurmStateCancelled = "CANCELLED"
	slurmStateTimeout   = "TIMEOUT"
)

// SlurmBackend constructs a submission script from SlurmConfig, submits it,
// and polls for completion at a bounded interval. New, modeled structurally
// on the Local/Docker backends: the same CommonConfig-driven timeout and
// graceful-cancellation contract, with SLURM's own script-and-poll
// mechanics in place of os/exec or the Docker daemon.
type SlurmBackend struct {
	cfg       SlurmConfig
	submitter Submitter
}

// NewSlurmBackend constructs a SlurmBackend. submitter is typically a
// *CLISubmitter shelling out to sbatch/squeue/scancel; tests substitute a
// fake.
func NewSlurmBackend(cfg SlurmConfig, submitter Submitter) (*SlurmBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &errs.RunError{Kind: errs.RunResourceDenied, Cause: err}
	}
	return &SlurmBackend{cfg: cfg, submitter: submitter}, nil
}

func (b *SlurmBackend) BackendType() string { return "slurm" }

// Execute writes a submission script into the staging directory, submits
// it, and polls until the job reaches a terminal state or the context is
// cancelled/times out.
func (b *SlurmBackend) Execute(ctx context.Context, container *modelrun.Container) (*Result, error) {
	log := logger.GetRunLogger()

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout := b.cfg.Timeout(); timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	scriptPath := filepath.Join(container.StagingDir(), "submit.sh")
	if err := os.WriteFile(scriptPath, []byte(b.renderScript(container)), 0o755); err != nil {
		return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("write submission script: %w", err)}
	}

	start := time.Now()
	jobID, err := b.submitter.Submit(runCtx, scriptPath)
	if err != nil {
		return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("submit job: %w", err)}
	}
	log.Info().Str("run_id", container.RunID).Str("job_id", jobID).Msg("slurm job submitted")

	ticker := time.NewTicker(b.cfg.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			_ = b.submitter.Cancel(context.Background(), jobID)
			duration := time.Since(start)
			if runCtx.Err() == context.DeadlineExceeded {
				return &Result{Success: false, State: StateTimedOut, Duration: duration}, &errs.RunError{Kind: errs.RunTimeout}
			}
			return &Result{Success: false, State: StateCancelled, Duration: duration}, &errs.RunError{Kind: errs.RunCancelled}

		case <-ticker.C:
			state, err := b.submitter.Poll(runCtx, jobID)
			if err != nil {
				return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("poll job %s: %w", jobID, err)}
			}
			switch state {
			case slurmStateCompleted:
				return &Result{Success: true, State: StateSucceeded, Duration: time.Since(start)}, nil
			case slurmStateFailed:
				return &Result{Success: false, State: StateFailed, Duration: time.Since(start)}, &errs.RunError{Kind: errs.RunNonZeroExit}
			case slurmStateCancelled:
				return &Result{Success: false, State: StateCancelled, Duration: time.Since(start)}, &errs.RunError{Kind: errs.RunCancelled}
			case slurmStateTimeout:
				return &Result{Success: false, State: StateTimedOut, Duration: time.Since(start)}, &errs.RunError{Kind: errs.RunTimeout}
			}
		}
	}
}

func (b *SlurmBackend) renderScript(container *modelrun.Container) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&sb, "#SBATCH --job-name=%s\n", container.RunID)
	fmt.Fprintf(&sb, "#SBATCH --partition=%s\n", b.cfg.Queue)
	fmt.Fprintf(&sb, "#SBATCH --nodes=%d\n", b.cfg.Nodes)
	fmt.Fprintf(&sb, "#SBATCH --time=%s\n", b.cfg.TimeLimit)
	if b.cfg.TasksPerNode > 0 {
		fmt.Fprintf(&sb, "#SBATCH --ntasks-per-node=%d\n", b.cfg.TasksPerNode)
	}
	if b.cfg.ScriptHeader != "" {
		sb.WriteString(b.cfg.ScriptHeader)
		sb.WriteString("\n")
	}
	for k, v := range b.cfg.EnvVars {
		fmt.Fprintf(&sb, "export %s=%s\n", k, v)
	}
	sb.WriteString(strings.Join(b.cfg.Executable, " "))
	sb.WriteString("\n")
	return sb.String()
}

// CLISubmitter implements Submitter by shelling out to sbatch, squeue, and
// scancel, the way a real SLURM cluster client would.
type CLISubmitter struct{}

func (CLISubmitter) Submit(ctx context.Context, scriptPath string) (string, error) {
	out, err := exec.CommandContext(ctx, "sbatch", "--parsable", scriptPath).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (CLISubmitter) Poll(ctx context.Context, jobID string) (string, error) {
	out, err := exec.CommandContext(ctx, "squeue", "-j", jobID, "-h", "-o", "%T").Output()
	if err != nil {
		return "", err
	}
	state := strings.TrimSpace(string(out))
	if state == "" {
		return slurmStateCompleted, nil
	}
	return state, nil
}

func (CLISubmitter) Cancel(ctx context.Context, jobID string) error {
	return exec.CommandContext(ctx, "scancel", jobID).Run()
}
