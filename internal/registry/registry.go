// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry implements the Plugin Registry: a process-wide,
// name-indexed directory of factories for the five extension-point kinds
// (model configs, run backends, postprocessors, pipeline backends, data
// sources). It generalizes the teacher's switch-based
// orchestrator/agents.GetAdapter pattern into a registration table so
// user-registered variants compose with built-ins through the same lookup
// path.
package registry

import (
	"sort"
	"sync"

	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
)

// Kind identifies one of the five plugin categories.
type Kind string

const (
	KindModelConfig     Kind = "config"
	KindRunBackend      Kind = "run_backend"
	KindPostprocessor   Kind = "postprocessor"
	KindPipelineBackend Kind = "pipeline_backend"
	KindDataSource      Kind = "data_source"
)

// Registry holds name -> factory maps for each Kind. It is safe to read
// concurrently once initialization (the register calls made at process
// start) has finished; register itself takes a lock so a one-shot scan can
// run concurrently with itself if the caller chooses to parallelize it.
type Registry struct {
	mu    sync.RWMutex
	kinds map[Kind]map[string]any
}

// New returns an empty Registry with all five kinds pre-allocated.
func New() *Registry {
	r := &Registry{kinds: make(map[Kind]map[string]any)}
	for _, k := range []Kind{KindModelConfig, KindRunBackend, KindPostprocessor, KindPipelineBackend, KindDataSource} {
		r.kinds[k] = make(map[string]any)
	}
	return r
}

// Register adds a factory under (kind, name). factory is stored as `any`
// and type-asserted back to its concrete function type by callers of
// Lookup, since each kind's factory signature differs (config factories
// parse a subtree; backend/postprocessor/pipeline-backend/data-source
// factories construct a runtime instance from typed options).
func (r *Registry) Register(kind Kind, name string, factory any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.kinds[kind]
	if !ok {
		m = make(map[string]any)
		r.kinds[kind] = m
	}
	if _, exists := m[name]; exists {
		return &errs.PluginError{Kind: errs.PluginDuplicateName, PluginKind: string(kind), Name: name}
	}
	m[name] = factory
	logger.GetRegistryLogger().Debug().Str("kind", string(kind)).Str("name", name).Msg("plugin registered")
	return nil
}

// Lookup returns the factory registered under (kind, name).
func (r *Registry) Lookup(kind Kind, name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.kinds[kind]
	if !ok {
		return nil, &errs.PluginError{Kind: errs.PluginUnknownPlugin, PluginKind: string(kind), Name: name}
	}
	factory, ok := m[name]
	if !ok {
		return nil, &errs.PluginError{Kind: errs.PluginUnknownPlugin, PluginKind: string(kind), Name: name, Available: r.namesLocked(kind)}
	}
	return factory, nil
}

// Names returns the registered plugin names for kind in stable alphabetical
// order.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked(kind)
}

func (r *Registry) namesLocked(kind Kind) []string {
	m := r.kinds[kind]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
