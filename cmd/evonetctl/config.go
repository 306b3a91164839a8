package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"evonet/internal/config"
)

func runConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config requires a subcommand: init")
	}
	switch args[0] {
	case "init":
		return runConfigInit(ctx, args[1:])
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

// runConfigInit writes the defaults to <file>; the extension picks YAML or INI.
func runConfigInit(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("config init", positional, "<file>"); err != nil {
		return err
	}
	path := positional[0]

	if !*force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
