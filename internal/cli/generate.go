// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/generate"
	"github.com/oceanrun/oceanrun/internal/modelconfig"
)

// generateCommand resolves a config document and runs the Generate stage
// only, optionally overriding output_dir from the command line.
func generateCommand(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	outputDir := fs.String("output-dir", "", "override the config's output_dir")
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun generate <config> [--output-dir dir]")
		return ExitConfig
	}
	configPath := fs.Arg(0)

	doc, err := loadDoc(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		return ExitConfig
	}

	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		return ExitConfig
	}

	container, err := modelconfig.NewResolver(r).Resolve(doc, environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		return ExitConfig
	}
	if *outputDir != "" {
		container.OutputDir = *outputDir
		if err := container.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "generate: %v\n", err)
			return ExitConfig
		}
	}

	stagingDir, err := generate.Run(container)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		return ExitError
	}

	fmt.Printf("generated: %s\n", stagingDir)
	return ExitSuccess
}
