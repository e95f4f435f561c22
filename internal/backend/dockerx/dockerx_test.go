// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dockerx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeMount(t *testing.T) {
	v := VolumeMount{HostPath: "/host", ContainerPath: "/container", ReadOnly: true}
	assert.True(t, v.ReadOnly)
	assert.Equal(t, "/host", v.HostPath)
}

func TestRunSpec_Defaults(t *testing.T) {
	spec := RunSpec{Image: "ubuntu:22.04", Command: []string{"true"}}
	assert.Equal(t, "ubuntu:22.04", spec.Image)
	assert.Empty(t, spec.Env)
}

func TestRunResult_Fields(t *testing.T) {
	r := RunResult{ContainerID: "abc", ExitCode: 0, Output: "done"}
	assert.Zero(t, r.ExitCode)
	assert.Equal(t, "done", r.Output)
}

func TestClientInterfaceSatisfiedByEngineClient(t *testing.T) {
	var _ Client = (*EngineClient)(nil)
}
