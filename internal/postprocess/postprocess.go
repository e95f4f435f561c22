// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package postprocess implements the Postprocess Stage: running a selected
// processor over a Model-Run Container's staging directory once Run has
// completed, and reporting a structured result map rather than propagating
// processor failures as errors across the stage boundary.
package postprocess

import (
	"fmt"

	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// Processor is the capability every Postprocess variant exposes: operate on
// the files Run produced and report a result map keyed at minimum by
// "success". Variants add processor-specific keys (file counts, archive
// paths, computed metrics) alongside it.
type Processor interface {
	ProcessorType() string
	Process(container *modelrun.Container) map[string]any
}

// Factory constructs a Processor from a config subtree, mirroring
// backend.Factory and modelconfig.Factory.
type Factory func(subtree map[string]any) (Processor, error)

// Run drives p against container and normalizes its outcome into the
// Pipeline Coordinator's expected shape: a non-nil result map always
// carrying "success", and a non-nil error iff success is false. A panic
// inside a processor is recovered here so it surfaces as a failed result
// instead of crashing the pipeline, per the contract that postprocess
// failures never propagate as exceptions across the boundary.
func Run(p Processor, container *modelrun.Container) (result map[string]any, err error) {
	log := logger.GetPostprocessLogger()

	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("processor %s panicked: %v", p.ProcessorType(), r)
			result = map[string]any{"success": false, "error": cause.Error()}
			err = &errs.PostprocessError{Kind: errs.PostprocessProcessorFailed, Cause: cause}
		}
	}()

	result = p.Process(container)
	if result == nil {
		result = map[string]any{"success": false, "error": "processor returned no result"}
	}

	success, _ := result["success"].(bool)
	if !success {
		reason, _ := result["error"].(string)
		if reason == "" {
			reason = "postprocess failed"
		}
		log.Warn().Str("run_id", container.RunID).Str("processor", p.ProcessorType()).Str("reason", reason).Msg("postprocess failed")
		return result, &errs.PostprocessError{Kind: errs.PostprocessProcessorFailed, Cause: fmt.Errorf("%s", reason)}
	}

	log.Info().Str("run_id", container.RunID).Str("processor", p.ProcessorType()).Msg("postprocess stage complete")
	return result, nil
}
