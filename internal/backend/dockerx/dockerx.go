// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dockerx wraps the Docker Engine API client with the narrow
// surface the Docker run backend needs: build an image, run a container to
// completion, and tear it down. Adapted from the teacher's
// pkg/containers/docker client, trimmed to the lifecycle a one-shot model
// run exercises (no long-lived container registry, no exec/copy surface).
package dockerx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
)

// RunSpec describes the container the Docker backend wants executed.
type RunSpec struct {
	Image       string
	Command     []string
	Env         map[string]string
	WorkingDir  string
	User        string
	NetworkMode string
	CPUShares   int64
	MemoryMB    int64
	Volumes     []VolumeMount
	Labels      map[string]string
}

// VolumeMount is a single host:container[:ro] bind mount.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// RunResult reports how the container exited.
type RunResult struct {
	ContainerID string
	ExitCode    int64
	Output      string
}

// Client is the narrow Docker Engine API surface the backend depends on.
type Client interface {
	BuildImage(ctx context.Context, dockerfile, buildContext string, buildArgs map[string]string) (string, error)
	RunToCompletion(ctx context.Context, spec RunSpec, removeOnExit bool) (*RunResult, error)
	Stop(ctx context.Context, containerID string, timeout time.Duration) error
	Close() error
}

// EngineClient implements Client against a real Docker daemon.
type EngineClient struct {
	docker *client.Client
}

var _ Client = (*EngineClient)(nil)

// NewEngineClient creates a Docker client. An empty host uses the standard
// DOCKER_HOST environment resolution.
func NewEngineClient(host string) (*EngineClient, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	} else {
		opts = append(opts, client.FromEnv)
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &EngineClient{docker: cli}, nil
}

// BuildImage builds an ephemeral image from a build context directory and
// returns the resulting image tag. Shells out to the docker CLI rather
// than the Engine API's build endpoint, the same os/exec approach the
// Local backend uses for process spawning, since the build API surface is
// more version-sensitive than the container lifecycle calls this package
// otherwise makes directly against the daemon.
func (c *EngineClient) BuildImage(ctx context.Context, dockerfile, buildContext string, buildArgs map[string]string) (string, error) {
	tag := fmt.Sprintf("oceanrun-build:%d", time.Now().UnixNano())

	args := []string{"build", "-t", tag, "-f", dockerfile}
	for k, v := range buildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, buildContext)

	cmd := exec.CommandContext(ctx, "docker", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("docker build: %w: %s", err, stderr.String())
	}
	return tag, nil
}

// RunToCompletion creates, starts, waits for, and (if removeOnExit) removes
// a container, returning its exit code and combined output.
func (c *EngineClient) RunToCompletion(ctx context.Context, spec RunSpec, removeOnExit bool) (*RunResult, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	binds := make([]string, 0, len(spec.Volumes))
	for _, v := range spec.Volumes {
		bind := fmt.Sprintf("%s:%s", v.HostPath, v.ContainerPath)
		if v.ReadOnly {
			bind += ":ro"
		}
		binds = append(binds, bind)
	}

	containerCfg := &container.Config{
		Image:      spec.Image,
		Cmd:        spec.Command,
		Env:        env,
		WorkingDir: spec.WorkingDir,
		User:       spec.User,
		Labels:     spec.Labels,
	}
	hostCfg := &container.HostConfig{
		Binds:       binds,
		NetworkMode: container.NetworkMode(spec.NetworkMode),
		Resources: container.Resources{
			Memory:    spec.MemoryMB * 1024 * 1024,
			CPUShares: spec.CPUShares,
		},
	}

	created, err := c.docker.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	containerID := created.ID

	if removeOnExit {
		defer func() {
			_ = c.docker.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true})
		}()
	}

	if err := c.docker.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	statusCh, errCh := c.docker.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("wait for container: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := c.docker.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	var output string
	if err == nil {
		defer logs.Close()
		buf, _ := io.ReadAll(logs)
		output = string(buf)
	}

	return &RunResult{ContainerID: containerID, ExitCode: exitCode, Output: output}, nil
}

// Stop stops a running container, allowing up to timeout before the daemon
// escalates to SIGKILL.
func (c *EngineClient) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	return c.docker.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &seconds})
}

// Close releases the underlying daemon connection.
func (c *EngineClient) Close() error {
	return c.docker.Close()
}
