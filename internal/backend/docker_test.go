// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/backend/dockerx"
)

type fakeDockerClient struct {
	runResult  *dockerx.RunResult
	runErr     error
	builtImage string
	buildErr   error
}

func (f *fakeDockerClient) BuildImage(ctx context.Context, dockerfile, buildContext string, buildArgs map[string]string) (string, error) {
	return f.builtImage, f.buildErr
}

func (f *fakeDockerClient) RunToCompletion(ctx context.Context, spec dockerx.RunSpec, removeOnExit bool) (*dockerx.RunResult, error) {
	return f.runResult, f.runErr
}

func (f *fakeDockerClient) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	return nil
}

func (f *fakeDockerClient) Close() error { return nil }

func TestDockerConfig_Validate_ImageXorDockerfile(t *testing.T) {
	cases := []struct {
		name    string
		cfg     DockerConfig
		wantErr bool
	}{
		{"neither", DockerConfig{}, true},
		{"both", DockerConfig{Image: "a", Dockerfile: "b", BuildContext: "."}, true},
		{"image only", DockerConfig{Image: "ubuntu:22.04"}, false},
		{"dockerfile only", DockerConfig{Dockerfile: "Dockerfile", BuildContext: "."}, false},
		{"dockerfile without context", DockerConfig{Dockerfile: "Dockerfile"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDockerConfig_Validate_CPUAndMemory(t *testing.T) {
	assert.Error(t, DockerConfig{Image: "x", CPUShares: 0, Memory: "bad"}.Validate())
	assert.Error(t, DockerConfig{Image: "x", CPUShares: 200}.Validate())
	assert.NoError(t, DockerConfig{Image: "x", CPUShares: 64, Memory: "512m"}.Validate())
	assert.NoError(t, DockerConfig{Image: "x", Memory: "2g"}.Validate())
}

func TestDockerBackend_Success(t *testing.T) {
	client := &fakeDockerClient{runResult: &dockerx.RunResult{ContainerID: "c1", ExitCode: 0, Output: "ok"}}
	b, err := NewDockerBackend(DockerConfig{Image: "ubuntu:22.04", Executable: []string{"/bin/true"}}, client)
	require.NoError(t, err)

	c := newTestContainer(t)
	require.NoError(t, c.Validate())

	res, err := b.Execute(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestDockerBackend_NonZeroExit(t *testing.T) {
	client := &fakeDockerClient{runResult: &dockerx.RunResult{ContainerID: "c1", ExitCode: 1}}
	b, err := NewDockerBackend(DockerConfig{Image: "ubuntu:22.04", Executable: []string{"/bin/false"}}, client)
	require.NoError(t, err)

	c := newTestContainer(t)
	require.NoError(t, c.Validate())

	res, err := b.Execute(context.Background(), c)
	require.Error(t, err)
	assert.False(t, res.Success)
}

func TestParseVolumeSpec(t *testing.T) {
	host := t.TempDir()

	v, err := parseVolumeSpec(host + ":/container:ro")
	require.NoError(t, err)
	assert.Equal(t, host, v.HostPath)
	assert.Equal(t, "/container", v.ContainerPath)
	assert.True(t, v.ReadOnly)

	_, err = parseVolumeSpec(host)
	assert.Error(t, err)

	_, err = parseVolumeSpec(host + ":/container:bogus")
	assert.Error(t, err)
}

func TestParseVolumeSpec_HostPathMustExist(t *testing.T) {
	_, err := parseVolumeSpec("/no/such/host/path:/container")
	assert.Error(t, err)
}
