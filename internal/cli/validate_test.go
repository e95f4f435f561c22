// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommand_Success(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", runConfigYAML("t1", filepath.Join(dir, "out")))

	assert.Equal(t, ExitSuccess, validateCommand([]string{cfg}))
}

func TestValidateCommand_UnknownVariant(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "run.yaml", `run_id: t1
period:
  start: "2023-01-01T00"
  duration: 1d
  interval: 1h
output_dir: `+filepath.Join(dir, "out")+`
config:
  model_type: zzz
`)

	assert.Equal(t, ExitConfig, validateCommand([]string{cfg}))
}

func TestValidateCommand_MissingArg(t *testing.T) {
	assert.Equal(t, ExitConfig, validateCommand(nil))
}

func TestValidateCommand_FileNotFound(t *testing.T) {
	assert.Equal(t, ExitConfig, validateCommand([]string{"/no/such/file.yaml"}))
}
