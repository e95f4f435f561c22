// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sequential implements the default pipeline backend: an
// in-process Generate -> Run -> Postprocess driver with no external
// dependency, delegating directly to pipeline.Execute.
package sequential

import (
	"context"

	"github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/modelrun"
	"github.com/oceanrun/oceanrun/internal/pipeline"
	"github.com/oceanrun/oceanrun/internal/postprocess"
)

// Backend is the "sequential" pipeline-backend variant.
type Backend struct{}

// New constructs a Backend. It takes no configuration: the sequential
// driver has nothing to tune beyond pipeline.Options, which callers pass
// directly to Run.
func New() *Backend {
	return &Backend{}
}

func (Backend) PipelineBackendType() string { return "sequential" }

// Run drives container's three stages in the current goroutine.
func (Backend) Run(ctx context.Context, container *modelrun.Container, runBackend backend.Backend, processor postprocess.Processor, opts pipeline.Options) (*modelrun.Result, error) {
	return pipeline.Execute(ctx, container, runBackend, processor, opts)
}
