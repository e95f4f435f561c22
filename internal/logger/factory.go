// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to oceanrun.yaml log.levels
// These ensure consistent logger names across the codebase

// GetRegistryLogger returns a logger for the plugin registry
func GetRegistryLogger() zerolog.Logger {
	return GetLogger("registry")
}

// GetTemplateLogger returns a logger for the template engine
func GetTemplateLogger() zerolog.Logger {
	return GetLogger("template")
}

// GetResolverLogger returns a logger for the config resolver
func GetResolverLogger() zerolog.Logger {
	return GetLogger("resolver")
}

// GetGenerateLogger returns a logger for the generate stage
func GetGenerateLogger() zerolog.Logger {
	return GetLogger("generate")
}

// GetRunLogger returns a logger for the run stage
func GetRunLogger() zerolog.Logger {
	return GetLogger("run")
}

// GetContainerLogger returns a logger for container operations
func GetContainerLogger() zerolog.Logger {
	return GetLogger("container")
}

// GetPostprocessLogger returns a logger for the postprocess stage
func GetPostprocessLogger() zerolog.Logger {
	return GetLogger("postprocess")
}

// GetPipelineLogger returns a logger for the pipeline coordinator
func GetPipelineLogger() zerolog.Logger {
	return GetLogger("pipeline")
}

// GetCLILogger returns a logger for the CLI
func GetCLILogger() zerolog.Logger {
	return GetLogger("cli")
}

// GetDatasourceLogger returns a logger for run-history datasources
func GetDatasourceLogger() zerolog.Logger {
	return GetLogger("datasource")
}

// GetTemporalLogger returns a logger for the Temporal pipeline backend
func GetTemporalLogger() zerolog.Logger {
	return GetLogger("temporal")
}
