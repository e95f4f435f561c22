// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/datasource"
	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/modelconfig"
	"github.com/oceanrun/oceanrun/internal/pipeline"
	"github.com/oceanrun/oceanrun/internal/postprocess"
	"github.com/oceanrun/oceanrun/internal/registry"
)

// newRegistry builds a Plugin Registry with all five kinds' built-in
// variants registered. User-supplied plugin manifests would extend this
// registry further; oceanrun's core ships only the built-ins.
func newRegistry() (*registry.Registry, error) {
	r := registry.New()
	if err := modelconfig.RegisterBuiltins(r); err != nil {
		return nil, fmt.Errorf("register model-config builtins: %w", err)
	}
	if err := backend.RegisterBuiltins(r); err != nil {
		return nil, fmt.Errorf("register run-backend builtins: %w", err)
	}
	if err := postprocess.RegisterBuiltins(r); err != nil {
		return nil, fmt.Errorf("register postprocessor builtins: %w", err)
	}
	if err := pipeline.RegisterBuiltins(r); err != nil {
		return nil, fmt.Errorf("register pipeline-backend builtins: %w", err)
	}
	if err := datasource.RegisterBuiltins(r); err != nil {
		return nil, fmt.Errorf("register data-source builtins: %w", err)
	}
	return r, nil
}

// loadDoc reads and parses a config document, supporting the documented
// CONFIG_FROM_ENV escape hatch: when set, path names an environment
// variable whose value is the config payload, rather than a file.
func loadDoc(path string) (any, error) {
	if envVar := os.Getenv("CONFIG_FROM_ENV"); envVar != "" {
		payload := os.Getenv(envVar)
		if payload == "" {
			return nil, fmt.Errorf("CONFIG_FROM_ENV=%s is set but %s is empty", envVar, envVar)
		}
		return docparse.Parse([]byte(payload), docparse.DetectFormat(path))
	}
	return docparse.ParseFile(path)
}

// environ returns the process environment as a map for template expansion.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}
