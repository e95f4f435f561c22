// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"fmt"
	"time"

	"github.com/oceanrun/oceanrun/internal/backend/dockerx"
	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/registry"
)

// RegisterBuiltins registers oceanrun's three built-in Run Stage backends.
func RegisterBuiltins(r *registry.Registry) error {
	if err := r.Register(registry.KindRunBackend, "local", Factory(newLocalFromSubtree)); err != nil {
		return err
	}
	if err := r.Register(registry.KindRunBackend, "docker", Factory(newDockerFromSubtree)); err != nil {
		return err
	}
	return r.Register(registry.KindRunBackend, "slurm", Factory(newSlurmFromSubtree))
}

func newLocalFromSubtree(subtree map[string]any) (Backend, error) {
	common := parseCommonConfig(subtree)
	if err := common.Validate(); err != nil {
		return nil, err
	}
	cfg := LocalConfig{
		CommonConfig:  common,
		Command:       stringSlice(subtree["command"]),
		Shell:         boolField(subtree["shell"]),
		CaptureOutput: boolFieldDefault(subtree["capture_output"], true),
	}
	return NewLocalBackend(cfg), nil
}

func newDockerFromSubtree(subtree map[string]any) (Backend, error) {
	common := parseCommonConfig(subtree)
	if err := common.Validate(); err != nil {
		return nil, err
	}

	volumesRaw := stringSlice(subtree["volumes"])
	volumes := make([]DockerVolume, 0, len(volumesRaw))
	for _, spec := range volumesRaw {
		v, err := parseVolumeSpec(spec)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}

	cfg := DockerConfig{
		CommonConfig:    common,
		Image:           stringField(subtree["image"]),
		Dockerfile:      stringField(subtree["dockerfile"]),
		BuildContext:    stringField(subtree["build_context"]),
		BuildArgs:       stringMap(subtree["build_args"]),
		Executable:      stringSlice(subtree["executable"]),
		MPIExec:         stringField(subtree["mpiexec"]),
		CPUShares:       int64Field(subtree["cpu_shares"]),
		Memory:          stringField(subtree["memory"]),
		User:            stringField(subtree["user"]),
		Volumes:         volumes,
		RemoveContainer: boolFieldDefault(subtree["remove_container"], true),
		NetworkMode:     stringField(subtree["network_mode"]),
	}

	host := stringField(subtree["docker_host"])
	client, err := dockerx.NewEngineClient(host)
	if err != nil {
		return nil, fmt.Errorf("docker backend: %w", err)
	}
	return NewDockerBackend(cfg, client)
}

func newSlurmFromSubtree(subtree map[string]any) (Backend, error) {
	common := parseCommonConfig(subtree)
	if err := common.Validate(); err != nil {
		return nil, err
	}

	cfg := SlurmConfig{
		CommonConfig: common,
		Queue:        stringField(subtree["queue"]),
		Nodes:        int(int64Field(subtree["nodes"])),
		TimeLimit:    stringField(subtree["time_limit"]),
		TasksPerNode: int(int64Field(subtree["tasks_per_node"])),
		Executable:   stringSlice(subtree["executable"]),
		ScriptHeader: stringField(subtree["script_header"]),
	}
	return NewSlurmBackend(cfg, CLISubmitter{})
}

func parseCommonConfig(subtree map[string]any) CommonConfig {
	return CommonConfig{
		TimeoutSeconds: int(int64Field(subtree["timeout_seconds"])),
		GracePeriod:    time.Duration(int64Field(subtree["grace_period_seconds"])) * time.Second,
		EnvVars:        stringMap(subtree["env_vars"]),
		WorkingDir:     stringField(subtree["working_dir"]),
	}
}

func stringField(v any) string {
	s, _ := docparse.AsString(v)
	return s
}

func boolField(v any) bool {
	b, _ := v.(bool)
	return b
}

func boolFieldDefault(v any, def bool) bool {
	if v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func int64Field(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := docparse.AsString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := docparse.AsString(val); ok {
			out[k] = s
		}
	}
	return out
}
