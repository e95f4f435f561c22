// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modelconfig implements the Model Configuration variants and the
// Config Resolver: the component that turns a template-expanded document
// into a typed, validated Model-Run Container. Variant dispatch follows the
// teacher's agents.GetAdapter switch pattern, generalized to a registry
// lookup so user-registered variants participate the same way built-ins do.
package modelconfig

import (
	"fmt"
	"time"

	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
	"github.com/oceanrun/oceanrun/internal/modelrun"
	"github.com/oceanrun/oceanrun/internal/registry"
	"github.com/oceanrun/oceanrun/internal/template"
)

// Factory parses a config subtree (already template-expanded, with the
// model_type discriminator removed) into a concrete ModelConfig.
type Factory func(subtree map[string]any) (modelrun.ModelConfig, error)

// RegisterBuiltins registers oceanrun's built-in config variants.
func RegisterBuiltins(r *registry.Registry) error {
	return r.Register(registry.KindModelConfig, "noop_model", Factory(newNoopModel))
}

// Resolver turns a parsed configuration document into a Model-Run
// Container: it expands templates, reads the top-level run fields, and
// dispatches the `config` subtree to the registered factory for its
// model_type.
type Resolver struct {
	Registry *registry.Registry
}

// NewResolver constructs a Resolver bound to the given plugin registry.
func NewResolver(r *registry.Registry) *Resolver {
	return &Resolver{Registry: r}
}

// Resolve implements the Config Resolver algorithm from the spec: expand
// templates, build the TimeRange, dispatch to the model_type factory, and
// assemble the Model-Run Container.
func (res *Resolver) Resolve(doc any, env map[string]string) (*modelrun.Container, error) {
	log := logger.GetResolverLogger()

	expanded, err := template.Expand(doc, env)
	if err != nil {
		return nil, err
	}

	top, err := docparse.AsMap(expanded)
	if err != nil {
		return nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: err}
	}

	runID, _ := docparse.AsString(top["run_id"])
	if runID == "" {
		return nil, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "run_id", Reason: "must be non-empty"}
	}

	outputDir, _ := docparse.AsString(top["output_dir"])
	if outputDir == "" {
		return nil, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "output_dir", Reason: "must be non-empty"}
	}

	deleteExisting, _ := top["delete_existing"].(bool)

	period, ok := top["period"].(map[string]any)
	if !ok {
		return nil, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period", Reason: "missing or not a mapping"}
	}
	timeRange, err := resolveTimeRange(period)
	if err != nil {
		return nil, err
	}

	configSubtree, ok := top["config"].(map[string]any)
	if !ok {
		return nil, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "config", Reason: "missing or not a mapping"}
	}
	modelType, _ := docparse.AsString(configSubtree["model_type"])
	if modelType == "" {
		return nil, &errs.ConfigError{Kind: errs.ConfigMissingDiscriminator, Path: []string{"config", "model_type"}}
	}

	factoryAny, err := res.Registry.Lookup(registry.KindModelConfig, modelType)
	if err != nil {
		var pluginErr *errs.PluginError
		if asPluginError(err, &pluginErr) {
			return nil, &errs.ConfigError{Kind: errs.ConfigUnknownVariant, Name: modelType, Available: pluginErr.Available}
		}
		return nil, err
	}
	factory, ok := factoryAny.(Factory)
	if !ok {
		return nil, &errs.ConfigError{Kind: errs.ConfigIOError, Cause: fmt.Errorf("registered factory for %q has unexpected type %T", modelType, factoryAny)}
	}

	payload := make(map[string]any, len(configSubtree))
	for k, v := range configSubtree {
		if k == "model_type" {
			continue
		}
		payload[k] = v
	}

	modelCfg, err := factory(payload)
	if err != nil {
		return nil, err
	}

	container := &modelrun.Container{
		RunID:          runID,
		Period:         timeRange,
		OutputDir:      outputDir,
		Config:         modelCfg,
		DeleteExisting: deleteExisting,
	}
	if err := container.Validate(); err != nil {
		return nil, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "container", Reason: err.Error()}
	}

	log.Info().Str("run_id", runID).Str("model_type", modelType).Msg("resolved model-run container")
	return container, nil
}

func asPluginError(err error, target **errs.PluginError) bool {
	pe, ok := err.(*errs.PluginError)
	if !ok {
		return false
	}
	*target = pe
	return true
}

// resolveTimeRange builds a modelrun.TimeRange from the `period` subtree,
// deriving end from start+duration when duration is given instead of end,
// per the Config Resolver algorithm.
func resolveTimeRange(period map[string]any) (modelrun.TimeRange, error) {
	startStr, _ := docparse.AsString(period["start"])
	if startStr == "" {
		return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period.start", Reason: "must be present"}
	}
	start, err := time.Parse(time.RFC3339, normalizeTimestamp(startStr))
	if err != nil {
		return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period.start", Reason: err.Error()}
	}

	var end time.Time
	if endStr, ok := docparse.AsString(period["end"]); ok && endStr != "" {
		end, err = time.Parse(time.RFC3339, normalizeTimestamp(endStr))
		if err != nil {
			return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period.end", Reason: err.Error()}
		}
	} else if durStr, ok := docparse.AsString(period["duration"]); ok && durStr != "" {
		dur, err := parseDurationSpec(durStr)
		if err != nil {
			return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period.duration", Reason: err.Error()}
		}
		end = start.Add(dur)
	} else {
		return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period", Reason: "one of end or duration is required"}
	}

	intervalStr, _ := docparse.AsString(period["interval"])
	if intervalStr == "" {
		return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period.interval", Reason: "must be present"}
	}
	interval, err := parseDurationSpec(intervalStr)
	if err != nil {
		return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period.interval", Reason: err.Error()}
	}

	tr := modelrun.TimeRange{Start: start, End: end, Interval: interval}
	if err := tr.Validate(); err != nil {
		return modelrun.TimeRange{}, &errs.ConfigError{Kind: errs.ConfigInvariantViolated, Field: "period", Reason: err.Error()}
	}
	return tr, nil
}

// normalizeTimestamp appends a UTC offset to bare-date / bare-hour ISO-8601
// strings so time.Parse(time.RFC3339, ...) accepts them.
func normalizeTimestamp(s string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02T15", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}

// parseDurationSpec parses either a Go duration string ("1h30m") or a
// day-suffixed shorthand ("1d", "2d12h") used by period.duration/interval.
func parseDurationSpec(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Fall back to a day-aware parse: split a leading "<n>d" off, then parse
	// the remainder (if any) as a normal Go duration.
	for i, r := range s {
		if r == 'd' {
			daysPart := s[:i]
			rest := s[i+1:]
			var days int
			if _, err := fmt.Sscanf(daysPart, "%d", &days); err != nil {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			total := time.Duration(days) * 24 * time.Hour
			if rest != "" {
				remainder, err := time.ParseDuration(rest)
				if err != nil {
					return 0, fmt.Errorf("invalid duration %q: %w", s, err)
				}
				total += remainder
			}
			return total, nil
		}
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}
