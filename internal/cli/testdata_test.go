// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile writes content to a file under dir and returns the full path,
// the way the teacher's CLI tests build throwaway fixture files.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runConfigYAML(runID, outputDir string) string {
	return `run_id: ` + runID + `
period:
  start: "2023-01-01T00"
  duration: 1d
  interval: 1h
output_dir: ` + outputDir + `
config:
  model_type: noop_model
`
}

func localBackendYAML(command string) string {
	return `type: local
timeout_seconds: 60
command: ["` + command + `"]
`
}
