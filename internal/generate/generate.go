// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generate implements the Generate stage: materializing a Model-Run
// Container's model inputs into its staging directory. Generate owns
// directory creation, existence checks, and the delete_existing policy; the
// config variant owns the file contents via Materialize.
package generate

import (
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// Run materializes container's inputs into its staging directory and
// returns that path. When container.DeleteExisting is true, any existing
// staging directory is removed first, making repeated calls idempotent.
func Run(container *modelrun.Container) (string, error) {
	log := logger.GetGenerateLogger()
	staging := container.StagingDir()

	if container.DeleteExisting {
		if err := os.RemoveAll(staging); err != nil {
			return "", &errs.GenerateError{Kind: errs.GenerateIOError, Cause: fmt.Errorf("remove existing staging dir: %w", err)}
		}
	}

	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", &errs.GenerateError{Kind: errs.GenerateIOError, Cause: fmt.Errorf("create staging dir: %w", err)}
	}

	if err := container.Config.Materialize(container, staging); err != nil {
		return "", &errs.GenerateError{Kind: errs.GenerateMaterializeFailed, Cause: err}
	}

	log.Info().Str("run_id", container.RunID).Str("staging_dir", staging).Msg("generate stage complete")
	return staging, nil
}

// Validate performs the lightweight post-Generate check the Pipeline
// Coordinator runs when validate_stages=true: the staging directory exists
// and is non-empty. The pipeline's own .oceanrun.lock file does not count.
func Validate(container *modelrun.Container) error {
	staging := container.StagingDir()
	entries, err := os.ReadDir(staging)
	if err != nil {
		return &errs.GenerateError{Kind: errs.GenerateIOError, Cause: fmt.Errorf("read staging dir: %w", err)}
	}
	populated := 0
	for _, entry := range entries {
		if entry.Name() != ".oceanrun.lock" {
			populated++
		}
	}
	if populated == 0 {
		return &errs.GenerateError{Kind: errs.GenerateMaterializeFailed, Cause: fmt.Errorf("staging dir %s is empty after generate", staging)}
	}
	return nil
}
