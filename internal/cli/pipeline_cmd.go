// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/modelconfig"
	"github.com/oceanrun/oceanrun/internal/pipeline"
)

// pipelineCommand resolves a config document, a run-backend, and a
// postprocessor, then drives all three stages through a pipeline backend
// (sequential by default, or the variant named by --pipeline-backend).
func pipelineCommand(args []string) int {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	runBackendArg := fs.String("run-backend", "local", "run-backend config file or bare registered name")
	processorArg := fs.String("processor", "noop", "postprocessor config file or bare registered name")
	pipelineBackendArg := fs.String("pipeline-backend", "sequential", "pipeline-backend config file or bare registered name")
	datasourceArg := fs.String("datasource", "", "run-history data source config file or bare registered name (optional)")
	cleanupOnFailure := fs.Bool("cleanup-on-failure", false, "remove the staging directory if generate or run fails")
	validateStages := fs.Bool("validate-stages", false, "run the lightweight post-generate check before run")
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun pipeline <config> [--run-backend x] [--processor x] [--pipeline-backend x] [--datasource x] [--cleanup-on-failure] [--validate-stages]")
		return ExitConfig
	}
	configPath := fs.Arg(0)

	doc, err := loadDoc(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}

	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}

	container, err := modelconfig.NewResolver(r).Resolve(doc, environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}

	runBackend, err := resolveRunBackend(r, *runBackendArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}

	processor, err := resolveProcessor(r, *processorArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}

	pipelineBackend, err := resolvePipelineBackend(r, *pipelineBackendArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}

	ds, err := resolveDataSource(r, *datasourceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitConfig
	}
	if ds != nil {
		defer ds.Close()
	}

	opts := pipeline.Options{
		ValidateStages:   *validateStages,
		CleanupOnFailure: *cleanupOnFailure,
		DataSource:       ds,
	}

	result, err := pipelineBackend.Run(context.Background(), container, runBackend, processor, opts)
	if result != nil {
		fmt.Printf("run_id=%s success=%t stages_completed=%v\n", result.RunID, result.Success, result.StagesCompleted)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return ExitError
	}
	if result == nil || !result.Success {
		return ExitError
	}
	return ExitSuccess
}
