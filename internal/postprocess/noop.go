// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package postprocess

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// NoopConfig configures the no-op processor: a list of output paths,
// relative to the staging directory, that must exist.
type NoopConfig struct {
	ExpectedFiles []string
}

// NoopProcessor only validates that declared outputs exist. It never
// computes, compresses, or plots anything.
type NoopProcessor struct {
	cfg NoopConfig
}

// NewNoopProcessor constructs a NoopProcessor from cfg.
func NewNoopProcessor(cfg NoopConfig) *NoopProcessor {
	return &NoopProcessor{cfg: cfg}
}

func (p *NoopProcessor) ProcessorType() string { return "noop" }

func (p *NoopProcessor) Process(container *modelrun.Container) map[string]any {
	staging := container.StagingDir()

	missing := make([]string, 0)
	for _, rel := range p.cfg.ExpectedFiles {
		if _, err := os.Stat(filepath.Join(staging, rel)); err != nil {
			missing = append(missing, rel)
		}
	}

	if len(missing) > 0 {
		return map[string]any{
			"success":       false,
			"error":         fmt.Sprintf("missing expected outputs: %v", missing),
			"missing_files": missing,
		}
	}

	return map[string]any{
		"success":       true,
		"checked_files": len(p.cfg.ExpectedFiles),
	}
}
