// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendsCommand_List(t *testing.T) {
	assert.Equal(t, ExitSuccess, backendsCommand([]string{"list"}))
}

func TestBackendsCommand_ValidateSuccess(t *testing.T) {
	dir := t.TempDir()
	backendCfg := writeFile(t, dir, "backend.yaml", localBackendYAML("true"))
	assert.Equal(t, ExitSuccess, backendsCommand([]string{"validate", backendCfg}))
}

func TestBackendsCommand_ValidateUnknownType(t *testing.T) {
	dir := t.TempDir()
	backendCfg := writeFile(t, dir, "backend.yaml", "type: zzz\n")
	assert.Equal(t, ExitConfig, backendsCommand([]string{"validate", backendCfg}))
}

func TestBackendsCommand_Schema(t *testing.T) {
	assert.Equal(t, ExitSuccess, backendsCommand([]string{"schema", "local"}))
}

func TestBackendsCommand_SchemaUnknownKind(t *testing.T) {
	assert.Equal(t, ExitConfig, backendsCommand([]string{"schema", "zzz"}))
}

func TestBackendsCommand_Create(t *testing.T) {
	dir := t.TempDir()
	backendCfg := writeFile(t, dir, "backend.yaml", localBackendYAML("true"))
	assert.Equal(t, ExitSuccess, backendsCommand([]string{"create", backendCfg}))
}

func TestBackendsCommand_UnknownSubcommand(t *testing.T) {
	assert.Equal(t, ExitConfig, backendsCommand([]string{"frobnicate"}))
}

func TestBackendsCommand_NoSubcommand(t *testing.T) {
	assert.Equal(t, ExitConfig, backendsCommand(nil))
}
