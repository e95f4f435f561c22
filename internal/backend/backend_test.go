// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonConfig_Validate_WorkingDirMustExist(t *testing.T) {
	cfg := CommonConfig{WorkingDir: filepath.Join(t.TempDir(), "does-not-exist")}
	assert.Error(t, cfg.Validate())
}

func TestCommonConfig_Validate_WorkingDirMustBeADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cfg := CommonConfig{WorkingDir: file}
	assert.Error(t, cfg.Validate())
}

func TestCommonConfig_Validate_WorkingDirOptional(t *testing.T) {
	assert.NoError(t, CommonConfig{}.Validate())
}

func TestCommonConfig_Validate_ExistingWorkingDir(t *testing.T) {
	cfg := CommonConfig{WorkingDir: t.TempDir()}
	assert.NoError(t, cfg.Validate())
}
