// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/oceanrun/oceanrun/internal/backend/dockerx"
	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
	"github.com/oceanrun/oceanrun/pkg/containers/validation"
)

var memoryPattern = regexp.MustCompile(`^\d+[mg]$`)

// DockerVolume is a single host:container[:mode] volume spec as parsed from
// a docker backend config's `volumes` list.
type DockerVolume struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// DockerConfig configures the Docker backend for one run. Exactly one of
// Image or Dockerfile must be set, enforced by Validate.
type DockerConfig struct {
	CommonConfig
	Image           string
	Dockerfile      string
	BuildContext    string
	BuildArgs       map[string]string
	Executable      []string
	MPIExec         string
	CPUShares       int64
	Memory          string
	User            string
	Volumes         []DockerVolume
	RemoveContainer bool
	NetworkMode     string
}

// Validate enforces the Docker backend's config-time invariants: image XOR
// dockerfile, CPU shares in [1, 128], and a memory string matching
// `\d+[mg]`.
func (c DockerConfig) Validate() error {
	hasImage := c.Image != ""
	hasDockerfile := c.Dockerfile != ""
	if hasImage == hasDockerfile {
		return fmt.Errorf("docker backend: exactly one of image or dockerfile must be set")
	}
	if hasDockerfile && c.BuildContext == "" {
		return fmt.Errorf("docker backend: build_context is required when dockerfile is set")
	}
	if c.CPUShares != 0 && (c.CPUShares < 1 || c.CPUShares > 128) {
		return fmt.Errorf("docker backend: cpu_shares must be in [1, 128], got %d", c.CPUShares)
	}
	if c.Memory != "" && !memoryPattern.MatchString(c.Memory) {
		return fmt.Errorf("docker backend: memory %q must match \\d+[mg]", c.Memory)
	}
	if err := validation.ValidateEnvironmentVariables(c.EnvVars); err != nil {
		return fmt.Errorf("docker backend: %w", err)
	}
	return nil
}

// memoryMB converts the memory string (e.g. "512m", "2g") to megabytes.
func (c DockerConfig) memoryMB() int64 {
	if c.Memory == "" {
		return 0
	}
	unit := c.Memory[len(c.Memory)-1]
	var n int64
	fmt.Sscanf(c.Memory[:len(c.Memory)-1], "%d", &n)
	if unit == 'g' {
		return n * 1024
	}
	return n
}

// DockerBackend runs a command inside a Docker container, building an
// ephemeral image from a Dockerfile when one is configured. Grounded on the
// teacher's pkg/containers/docker client and pkg/containers/service,
// narrowed to the one-shot run-to-completion lifecycle.
type DockerBackend struct {
	cfg    DockerConfig
	client dockerx.Client
}

// NewDockerBackend constructs a DockerBackend. client is typically an
// *dockerx.EngineClient; tests substitute a fake.
func NewDockerBackend(cfg DockerConfig, client dockerx.Client) (*DockerBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &errs.RunError{Kind: errs.RunResourceDenied, Cause: err}
	}
	return &DockerBackend{cfg: cfg, client: client}, nil
}

func (b *DockerBackend) BackendType() string { return "docker" }

// Execute builds (if needed) and runs the configured container, waiting for
// completion or the configured timeout.
func (b *DockerBackend) Execute(ctx context.Context, container *modelrun.Container) (*Result, error) {
	log := logger.GetRunLogger()

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout := b.cfg.Timeout(); timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	image := b.cfg.Image
	if b.cfg.Dockerfile != "" {
		built, err := b.client.BuildImage(runCtx, b.cfg.Dockerfile, b.cfg.BuildContext, b.cfg.BuildArgs)
		if err != nil {
			return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("build image: %w", err)}
		}
		image = built
	}

	command := append([]string{}, b.cfg.Executable...)
	if b.cfg.MPIExec != "" {
		command = append([]string{b.cfg.MPIExec}, command...)
	}

	volumes := make([]dockerx.VolumeMount, 0, len(b.cfg.Volumes)+1)
	volumes = append(volumes, dockerx.VolumeMount{HostPath: container.StagingDir(), ContainerPath: "/workspace"})
	for _, v := range b.cfg.Volumes {
		volumes = append(volumes, dockerx.VolumeMount{HostPath: v.HostPath, ContainerPath: v.ContainerPath, ReadOnly: v.ReadOnly})
	}

	workDir := b.cfg.WorkingDir
	if workDir == "" {
		workDir = "/workspace"
	}

	spec := dockerx.RunSpec{
		Image:       image,
		Command:     command,
		Env:         b.cfg.EnvVars,
		WorkingDir:  workDir,
		User:        b.cfg.User,
		NetworkMode: b.cfg.NetworkMode,
		CPUShares:   b.cfg.CPUShares,
		MemoryMB:    b.cfg.memoryMB(),
		Volumes:     volumes,
	}

	removeOnExit := true
	if !b.cfg.RemoveContainer {
		removeOnExit = false
	}

	start := time.Now()
	log.Info().Str("run_id", container.RunID).Str("image", image).Msg("docker run started")
	runResult, err := b.client.RunToCompletion(runCtx, spec, removeOnExit)
	duration := time.Since(start)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return &Result{Success: false, State: StateTimedOut, Duration: duration}, &errs.RunError{Kind: errs.RunTimeout, Cause: err}
		}
		if runCtx.Err() == context.Canceled {
			return &Result{Success: false, State: StateCancelled, Duration: duration}, &errs.RunError{Kind: errs.RunCancelled, Cause: err}
		}
		return &Result{Success: false, State: StateFailed, Duration: duration}, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: err}
	}

	res := &Result{
		Success:  runResult.ExitCode == 0,
		State:    StateSucceeded,
		ExitCode: int(runResult.ExitCode),
		Output:   runResult.Output,
		Duration: duration,
	}
	if runResult.ExitCode != 0 {
		res.State = StateFailed
		return res, &errs.RunError{Kind: errs.RunNonZeroExit, ExitCode: int(runResult.ExitCode)}
	}
	return res, nil
}

// parseVolumeSpec parses a `host:container[:mode]` volume string as found
// in a docker backend config's `volumes` list, requiring the host path to
// already exist so a typo is rejected at config-load time instead of
// surfacing later as a Docker daemon mount error.
func parseVolumeSpec(spec string) (DockerVolume, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return DockerVolume{}, fmt.Errorf("volume spec %q must be host:container[:mode]", spec)
	}
	if _, err := os.Stat(parts[0]); err != nil {
		return DockerVolume{}, fmt.Errorf("volume spec %q: host path: %w", spec, err)
	}
	v := DockerVolume{HostPath: parts[0], ContainerPath: parts[1]}
	if len(parts) == 3 {
		switch parts[2] {
		case "ro":
			v.ReadOnly = true
		case "rw":
			v.ReadOnly = false
		default:
			return DockerVolume{}, fmt.Errorf("volume spec %q: mode must be ro or rw", spec)
		}
	}
	return v, nil
}
