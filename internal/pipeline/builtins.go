// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/pipeline/backends/sequential"
	ptemporal "github.com/oceanrun/oceanrun/internal/pipeline/backends/temporal"
	"github.com/oceanrun/oceanrun/internal/registry"
)

// RegisterBuiltins registers oceanrun's two built-in Pipeline Coordinator
// variants: "sequential" (the default, in-process driver) and "temporal"
// (the same three stages, durable and retried via a Temporal workflow).
func RegisterBuiltins(r *registry.Registry) error {
	if err := r.Register(registry.KindPipelineBackend, "sequential", Factory(newSequentialFromSubtree)); err != nil {
		return err
	}
	return r.Register(registry.KindPipelineBackend, "temporal", Factory(newTemporalFromSubtree))
}

func newSequentialFromSubtree(map[string]any) (PipelineBackend, error) {
	return sequential.New(), nil
}

func newTemporalFromSubtree(subtree map[string]any) (PipelineBackend, error) {
	hostPort := stringFieldDefault(subtree["host_port"], "localhost:7233")
	namespace := stringFieldDefault(subtree["namespace"], "default")
	taskQueue := stringFieldDefault(subtree["task_queue"], "oceanrun-pipeline")

	c, err := client.NewLazyClient(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    logger.GetTemporalLogAdapter("pipeline"),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal pipeline backend: dial %s: %w", hostPort, err)
	}

	return ptemporal.New(c, taskQueue), nil
}

func stringFieldDefault(v any, def string) string {
	s, ok := docparse.AsString(v)
	if !ok || s == "" {
		return def
	}
	return s
}
