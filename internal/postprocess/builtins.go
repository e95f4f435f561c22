// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package postprocess

import (
	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/registry"
)

// RegisterBuiltins registers oceanrun's three built-in Postprocess
// variants.
func RegisterBuiltins(r *registry.Registry) error {
	if err := r.Register(registry.KindPostprocessor, "noop", Factory(newNoopFromSubtree)); err != nil {
		return err
	}
	if err := r.Register(registry.KindPostprocessor, "metrics", Factory(newMetricsFromSubtree)); err != nil {
		return err
	}
	return r.Register(registry.KindPostprocessor, "archive", Factory(newArchiveFromSubtree))
}

func newNoopFromSubtree(subtree map[string]any) (Processor, error) {
	return NewNoopProcessor(NoopConfig{
		ExpectedFiles: stringSlice(subtree["expected_files"]),
	}), nil
}

func newMetricsFromSubtree(subtree map[string]any) (Processor, error) {
	return NewMetricsProcessor(MetricsConfig{
		OutputSubdir: stringField(subtree["output_subdir"]),
		Patterns:     stringSlice(subtree["patterns"]),
	}), nil
}

func newArchiveFromSubtree(subtree map[string]any) (Processor, error) {
	return NewArchiveProcessor(ArchiveConfig{
		OutputSubdir: stringField(subtree["output_subdir"]),
		ArchivePath:  stringField(subtree["archive_path"]),
		Excludes:     stringSlice(subtree["excludes"]),
	}), nil
}

func stringField(v any) string {
	s, _ := docparse.AsString(v)
	return s
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
