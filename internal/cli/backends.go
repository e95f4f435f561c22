// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/oceanrun/oceanrun/internal/backend"
	"github.com/oceanrun/oceanrun/internal/registry"
)

// schemaTargets maps a run-backend kind name to the Go config struct its
// schema command should reflect over. Kept separate from the registry
// since the registry stores constructed factories, not the static config
// shape schema needs.
var schemaTargets = map[string]any{
	"local":  backend.LocalConfig{},
	"docker": backend.DockerConfig{},
	"slurm":  backend.SlurmConfig{},
}

// backendsCommand implements run-backend registry introspection: list,
// validate, schema, create.
func backendsCommand(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun backends list|validate|schema|create")
		return ExitConfig
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "list":
		return backendsListCommand(rest)
	case "validate":
		return backendsValidateCommand(rest)
	case "schema":
		return backendsSchemaCommand(rest)
	case "create":
		return backendsCreateCommand(rest)
	default:
		fmt.Fprintf(os.Stderr, "backends: unknown subcommand %q\n", sub)
		return ExitConfig
	}
}

func backendsListCommand(args []string) int {
	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "backends list: %v\n", err)
		return ExitConfig
	}
	for _, name := range r.Names(registry.KindRunBackend) {
		fmt.Println(name)
	}
	return ExitSuccess
}

func backendsValidateCommand(args []string) int {
	fs := flag.NewFlagSet("backends validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun backends validate <config>")
		return ExitConfig
	}

	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "backends validate: %v\n", err)
		return ExitConfig
	}

	if _, err := resolveRunBackend(r, fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "backends validate: %v\n", err)
		return ExitConfig
	}

	fmt.Println("ok")
	return ExitSuccess
}

func backendsSchemaCommand(args []string) int {
	fs := flag.NewFlagSet("backends schema", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun backends schema <kind>")
		return ExitConfig
	}

	kind := fs.Arg(0)
	target, ok := schemaTargets[kind]
	if !ok {
		fmt.Fprintf(os.Stderr, "backends schema: unknown backend kind %q\n", kind)
		return ExitConfig
	}

	reflector := &jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(target)
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "backends schema: %v\n", err)
		return ExitError
	}
	fmt.Println(string(out))
	return ExitSuccess
}

func backendsCreateCommand(args []string) int {
	fs := flag.NewFlagSet("backends create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitConfig
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: oceanrun backends create <config>")
		return ExitConfig
	}

	r, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "backends create: %v\n", err)
		return ExitConfig
	}

	b, err := resolveRunBackend(r, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "backends create: %v\n", err)
		return ExitConfig
	}

	fmt.Printf("constructed backend: %s\n", b.BackendType())
	return ExitSuccess
}
