// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineCommand_DefaultsSucceed(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", runConfigYAML("t1", filepath.Join(dir, "out")))
	backendCfg := writeFile(t, dir, "backend.yaml", localBackendYAML("true"))

	code := pipelineCommand([]string{cfg, "--run-backend", backendCfg})
	assert.Equal(t, ExitSuccess, code)
}

func TestPipelineCommand_ValidateStagesAndCleanup(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", runConfigYAML("t1", filepath.Join(dir, "out")))
	backendCfg := writeFile(t, dir, "backend.yaml", localBackendYAML("false"))

	code := pipelineCommand([]string{cfg, "--run-backend", backendCfg, "--validate-stages", "--cleanup-on-failure"})
	assert.Equal(t, ExitError, code)
}

func TestPipelineCommand_UnknownProcessor(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", runConfigYAML("t1", filepath.Join(dir, "out")))

	code := pipelineCommand([]string{cfg, "--processor", "does-not-exist"})
	assert.Equal(t, ExitConfig, code)
}

func TestPipelineCommand_MissingArg(t *testing.T) {
	assert.Equal(t, ExitConfig, pipelineCommand(nil))
}

func TestPipelineCommand_WritesRunHistoryRecord(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", runConfigYAML("t1", filepath.Join(dir, "out")))
	backendCfg := writeFile(t, dir, "backend.yaml", localBackendYAML("true"))
	historyRoot := filepath.Join(dir, "history-root")
	dsCfg := writeFile(t, dir, "datasource.yaml", "type: localfs\nroot: "+historyRoot+"\n")

	code := pipelineCommand([]string{cfg, "--run-backend", backendCfg, "--datasource", dsCfg})
	require.Equal(t, ExitSuccess, code)

	_, err := os.Stat(filepath.Join(historyRoot, ".oceanrun", "history", "t1.json"))
	assert.NoError(t, err)
}

func TestPipelineCommand_UnknownDataSource(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", runConfigYAML("t1", filepath.Join(dir, "out")))

	code := pipelineCommand([]string{cfg, "--datasource", "does-not-exist"})
	assert.Equal(t, ExitConfig, code)
}
