// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/generate"
	"github.com/oceanrun/oceanrun/internal/modelconfig"
)

// runCommand resolves a config document and a run-backend config, runs
// Generate, and (unless --dry-run) hands the container to the backend's
// Execute.
func runCommand(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backendConfig := fs.String("backend-config", "", "path to a run-backend config (required)")
	dryRun := fs.Bool("dry-run", false, "stop after the Generate stage")
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun run <config> --backend-config <path> [--dry-run]")
		return ExitConfig
	}
	if *backendConfig == "" {
		fmt.Fprintln(os.Stderr, "run: --backend-config is required")
		return ExitConfig
	}
	configPath := fs.Arg(0)

	doc, err := loadDoc(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return ExitConfig
	}

	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return ExitConfig
	}

	container, err := modelconfig.NewResolver(r).Resolve(doc, environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return ExitConfig
	}

	runBackend, err := resolveRunBackend(r, *backendConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return ExitConfig
	}

	stagingDir, err := generate.Run(container)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return ExitError
	}
	fmt.Printf("generated: %s\n", stagingDir)

	if *dryRun {
		return ExitSuccess
	}

	result, err := runBackend.Execute(context.Background(), container)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return ExitError
	}
	if !result.Success {
		fmt.Fprintf(os.Stderr, "run: backend did not succeed: %s\n", result.ErrOutput)
		return ExitError
	}

	fmt.Printf("run complete: exit_code=%d duration=%s\n", result.ExitCode, result.Duration)
	return ExitSuccess
}
