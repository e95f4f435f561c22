// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package postprocess

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// MetricsConfig configures the metrics processor.
type MetricsConfig struct {
	// OutputSubdir names the staging-directory subdirectory the processor
	// writes metrics.json into, satisfying the requirement that a
	// postprocessor's emitted files live under a declared subdirectory
	// rather than mixed in with Run's outputs. Defaults to "postprocess".
	OutputSubdir string
	// Patterns restricts which staging-dir files are measured to those
	// whose base name matches one of these filepath.Match patterns. Empty
	// means every file.
	Patterns []string
}

// MetricsProcessor computes per-file sizes and a total byte count over a
// run's outputs and writes a metrics.json summary.
type MetricsProcessor struct {
	cfg MetricsConfig
}

// NewMetricsProcessor constructs a MetricsProcessor from cfg.
func NewMetricsProcessor(cfg MetricsConfig) *MetricsProcessor {
	return &MetricsProcessor{cfg: cfg}
}

func (p *MetricsProcessor) ProcessorType() string { return "metrics" }

func (p *MetricsProcessor) subdir() string {
	if p.cfg.OutputSubdir == "" {
		return "postprocess"
	}
	return p.cfg.OutputSubdir
}

type metricsSummary struct {
	FileCount  int              `json:"file_count"`
	TotalBytes int64            `json:"total_bytes"`
	Files      map[string]int64 `json:"files"`
}

func (p *MetricsProcessor) Process(container *modelrun.Container) map[string]any {
	staging := container.StagingDir()
	subdir := p.subdir()

	perFile := make(map[string]int64)
	var totalBytes int64

	err := filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(staging, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if rel == subdir {
				return fs.SkipDir
			}
			return nil
		}
		if len(p.cfg.Patterns) > 0 && !p.matchesAny(filepath.Base(path)) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		perFile[rel] = info.Size()
		totalBytes += info.Size()
		return nil
	})
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("walk staging dir: %v", err)}
	}

	outDir := filepath.Join(staging, subdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("create output subdir: %v", err)}
	}

	summary := metricsSummary{FileCount: len(perFile), TotalBytes: totalBytes, Files: perFile}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("marshal summary: %v", err)}
	}

	summaryPath := filepath.Join(outDir, "metrics.json")
	if err := os.WriteFile(summaryPath, data, 0o644); err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("write summary: %v", err)}
	}

	return map[string]any{
		"success":      true,
		"file_count":   summary.FileCount,
		"total_bytes":  summary.TotalBytes,
		"summary_path": summaryPath,
	}
}

func (p *MetricsProcessor) matchesAny(name string) bool {
	for _, pattern := range p.cfg.Patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
