// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// LocalConfig configures the Local backend: a command executed in the
// staging directory via os/exec, optionally through a shell.
type LocalConfig struct {
	CommonConfig
	Command       []string
	Shell         bool
	CaptureOutput bool
}

// LocalBackend executes a command locally using os/exec in place of a
// container or scheduler, grounded on the teacher's
// LocalExecutionActivities: when CaptureOutput is set, stdout and stderr are
// collected into in-memory buffers (with no size bound), and termination is
// graceful (SIGTERM) before forcible (SIGKILL).
type LocalBackend struct {
	cfg LocalConfig
}

// NewLocalBackend constructs a LocalBackend from cfg.
func NewLocalBackend(cfg LocalConfig) *LocalBackend {
	return &LocalBackend{cfg: cfg}
}

func (b *LocalBackend) BackendType() string { return "local" }

// Execute runs the configured command in container's staging directory.
func (b *LocalBackend) Execute(ctx context.Context, container *modelrun.Container) (*Result, error) {
	log := logger.GetRunLogger()

	if len(b.cfg.Command) == 0 {
		return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("local backend: command must not be empty")}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout := b.cfg.Timeout(); timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if b.cfg.Shell {
		cmd = exec.Command("/bin/sh", "-c", strings.Join(b.cfg.Command, " "))
	} else if len(b.cfg.Command) == 1 {
		cmd = exec.Command(b.cfg.Command[0])
	} else {
		cmd = exec.Command(b.cfg.Command[0], b.cfg.Command[1:]...)
	}

	workDir := b.cfg.WorkingDir
	if workDir == "" {
		workDir = container.StagingDir()
	}
	cmd.Dir = workDir

	for k, v := range b.cfg.EnvVars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stdout, stderr strings.Builder
	if b.cfg.CaptureOutput {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("start command: %w", err)}
	}
	log.Info().Str("run_id", container.RunID).Strs("command", b.cfg.Command).Int("pid", cmd.Process.Pid).Msg("local run started")

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		duration := time.Since(start)
		return b.finish(err, duration, stdout.String(), stderr.String())

	case <-runCtx.Done():
		timedOut := runCtx.Err() == context.DeadlineExceeded
		state := StateCancelled
		if timedOut {
			state = StateTimedOut
		}

		b.terminate(cmd)

		select {
		case err := <-waitErr:
			duration := time.Since(start)
			res, rErr := b.finish(err, duration, stdout.String(), stderr.String())
			if res != nil {
				res.State = state
			}
			if timedOut {
				return res, &errs.RunError{Kind: errs.RunTimeout, Cause: fmt.Errorf("local run exceeded timeout")}
			}
			return res, &errs.RunError{Kind: errs.RunCancelled, Cause: rErr}
		case <-time.After(b.cfg.GraceOrDefault() + 2*time.Second):
			return &Result{Success: false, State: state, Duration: time.Since(start)}, &errs.RunError{Kind: errs.RunCancelled, Cause: fmt.Errorf("process did not exit after forced termination")}
		}
	}
}

// terminate implements the graceful-then-forcible termination sequence:
// SIGTERM, then SIGKILL after the backend's grace period.
func (b *LocalBackend) terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	timer := time.NewTimer(b.cfg.GraceOrDefault())
	defer timer.Stop()
	<-timer.C
	_ = cmd.Process.Signal(syscall.SIGKILL)
}

func (b *LocalBackend) finish(runErr error, duration time.Duration, stdout, stderr string) (*Result, error) {
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	res := &Result{
		Success:   runErr == nil,
		State:     StateSucceeded,
		ExitCode:  exitCode,
		Output:    stdout,
		ErrOutput: stderr,
		Duration:  duration,
	}

	if runErr != nil {
		res.State = StateFailed
		res.Error = runErr
		return res, &errs.RunError{Kind: errs.RunNonZeroExit, ExitCode: exitCode, Cause: runErr}
	}
	return res, nil
}
