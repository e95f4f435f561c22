// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package modelconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// NoopModel is the built-in model configuration used for pipeline smoke
// tests and end-to-end scenarios that do not need real scientific input
// generation: Materialize writes a single marker file recording the
// resolved run parameters.
type NoopModel struct {
	Marker string
}

func (m *NoopModel) ModelType() string { return "noop_model" }

// Materialize writes m.Marker (default "INPUT.marker") into stagingDir,
// containing the run's identifying fields, satisfying Generate's contract
// that the staging directory ends up populated with whatever the config
// variant requires downstream.
func (m *NoopModel) Materialize(container *modelrun.Container, stagingDir string) error {
	name := m.Marker
	if name == "" {
		name = "INPUT.marker"
	}
	content := fmt.Sprintf("run_id=%s\nstart=%s\nend=%s\ninterval=%s\n",
		container.RunID, container.Period.Start, container.Period.End, container.Period.Interval)
	return os.WriteFile(filepath.Join(stagingDir, name), []byte(content), 0o644)
}

func newNoopModel(subtree map[string]any) (modelrun.ModelConfig, error) {
	marker, _ := subtree["marker"].(string)
	return &NoopModel{Marker: marker}, nil
}
