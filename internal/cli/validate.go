// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/oceanrun/oceanrun/internal/modelconfig"
)

// validateCommand parses, template-expands, and resolves a config document
// without running any stage, per the documented `validate` contract.
func validateCommand(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun validate <config>")
		return ExitConfig
	}
	configPath := fs.Arg(0)

	doc, err := loadDoc(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return ExitConfig
	}

	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return ExitConfig
	}

	container, err := modelconfig.NewResolver(r).Resolve(doc, environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return ExitConfig
	}

	fmt.Printf("ok: run_id=%s model_type=%s output_dir=%s\n", container.RunID, container.Config.ModelType(), container.OutputDir)
	return ExitSuccess
}
