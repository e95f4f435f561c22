// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/datasource"
	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/pipeline"
	"github.com/oceanrun/oceanrun/internal/postprocess"
	"github.com/oceanrun/oceanrun/internal/registry"
	"github.com/oceanrun/oceanrun/internal/template"
)

// loadPluginSubtree loads a plugin config document from path,
// template-expands it, and splits off its `type` discriminator. It mirrors
// modelconfig.Resolver.Resolve's discriminator dispatch for the plugin
// kinds the spec documents as using `type` rather than `model_type`: run
// backends, postprocessors, and pipeline backends.
//
// When arg does not name an existing file, it is treated as a bare
// registered plugin name with no fields (e.g. `--processor noop`), since
// several built-in variants need no configuration at all.
func loadPluginSubtree(arg string) (variant string, payload map[string]any, err error) {
	if _, statErr := os.Stat(arg); statErr != nil {
		return arg, map[string]any{}, nil
	}

	doc, err := loadDoc(arg)
	if err != nil {
		return "", nil, err
	}

	expanded, err := template.Expand(doc, environ())
	if err != nil {
		return "", nil, err
	}

	top, err := docparse.AsMap(expanded)
	if err != nil {
		return "", nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: err}
	}

	variant, _ = docparse.AsString(top["type"])
	if variant == "" {
		return "", nil, &errs.ConfigError{Kind: errs.ConfigMissingDiscriminator, Path: []string{"type"}}
	}

	payload = make(map[string]any, len(top))
	for k, v := range top {
		if k == "type" {
			continue
		}
		payload[k] = v
	}
	return variant, payload, nil
}

// resolveRunBackend loads and constructs a run backend from a config file.
func resolveRunBackend(r *registry.Registry, path string) (backend.Backend, error) {
	variant, payload, err := loadPluginSubtree(path)
	if err != nil {
		return nil, err
	}
	factoryAny, err := r.Lookup(registry.KindRunBackend, variant)
	if err != nil {
		return nil, err
	}
	factory, ok := factoryAny.(backend.Factory)
	if !ok {
		return nil, fmt.Errorf("run backend %q: unexpected factory type %T", variant, factoryAny)
	}
	return factory(payload)
}

// resolveProcessor loads and constructs a postprocessor from a config file.
func resolveProcessor(r *registry.Registry, path string) (postprocess.Processor, error) {
	variant, payload, err := loadPluginSubtree(path)
	if err != nil {
		return nil, err
	}
	factoryAny, err := r.Lookup(registry.KindPostprocessor, variant)
	if err != nil {
		return nil, err
	}
	factory, ok := factoryAny.(postprocess.Factory)
	if !ok {
		return nil, fmt.Errorf("postprocessor %q: unexpected factory type %T", variant, factoryAny)
	}
	return factory(payload)
}

// resolvePipelineBackend loads and constructs a pipeline backend from a
// config file.
func resolvePipelineBackend(r *registry.Registry, path string) (pipeline.PipelineBackend, error) {
	variant, payload, err := loadPluginSubtree(path)
	if err != nil {
		return nil, err
	}
	factoryAny, err := r.Lookup(registry.KindPipelineBackend, variant)
	if err != nil {
		return nil, err
	}
	factory, ok := factoryAny.(pipeline.Factory)
	if !ok {
		return nil, fmt.Errorf("pipeline backend %q: unexpected factory type %T", variant, factoryAny)
	}
	return factory(payload)
}

// resolveDataSource loads and constructs a run-history data source from a
// config file or bare registered name. path == "" means no data source was
// requested, in which case resolveDataSource returns a nil DataSource and a
// nil error; the pipeline coordinator treats a nil DataSource as "record
// nothing".
func resolveDataSource(r *registry.Registry, path string) (datasource.DataSource, error) {
	if path == "" {
		return nil, nil
	}
	variant, payload, err := loadPluginSubtree(path)
	if err != nil {
		return nil, err
	}
	factoryAny, err := r.Lookup(registry.KindDataSource, variant)
	if err != nil {
		return nil, err
	}
	factory, ok := factoryAny.(datasource.Factory)
	if !ok {
		return nil, fmt.Errorf("data source %q: unexpected factory type %T", variant, factoryAny)
	}
	return factory(payload)
}
