package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"evonet/internal/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "touch":
		return runTouch(ctx, args[1:])
	case "dump":
		return runDump(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "mutate":
		return runMutate(ctx, args[1:])
	case "create":
		return runCreate(ctx, args[1:])
	case "remove":
		return runRemove(ctx, args[1:])
	case "connect":
		return runConnect(ctx, args[1:])
	case "unconnect":
		return runUnconnect(ctx, args[1:])
	case "get":
		return runGet(ctx, args[1:])
	case "set":
		return runSet(ctx, args[1:])
	case "activations":
		return runActivations(ctx, args[1:])
	case "evolve":
		return runEvolve(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "snapshots":
		return runSnapshots(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "config":
		return runConfig(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evonetctl <touch|dump|run|mutate|create|remove|connect|unconnect|get|set|activations|evolve|runs|snapshots|export|config> [flags] [args]", msg)
}

// parseArgs parses flags that may appear before, between or after
// positional arguments. Arguments after "--" are always positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func requireArgs(name string, got []string, want ...string) error {
	if len(got) == len(want) {
		return nil
	}
	return fmt.Errorf("%s expects %d argument(s): %s, got %d", name, len(want), strings.Join(want, " "), len(got))
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// commonFlags are the settings shared with the config file. Flags given on
// the command line override the file.
type commonFlags struct {
	configPath *string
	storeKind  *string
	dbPath     *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	defaults := config.Default()
	return commonFlags{
		configPath: fs.String("config", "", "config file (.yaml, .yml or .ini)"),
		storeKind:  fs.String("store", defaults.Store.Kind, "store backend: memory|sqlite"),
		dbPath:     fs.String("db-path", defaults.Store.Path, "sqlite database path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

func (c commonFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	if isSet(fs, "store") {
		cfg.Store.Kind = *c.storeKind
	}
	if isSet(fs, "db-path") {
		cfg.Store.Path = *c.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c commonFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if *c.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseFloats parses a comma separated list such as "1, 0.5,-2".
func parseFloats(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("parse input %q: %w", part, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func formatFloats(values []float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

var errMissingFlag = errors.New("missing required flag")

func requireFlag(fs *flag.FlagSet, name string) error {
	if isSet(fs, name) {
		return nil
	}
	return fmt.Errorf("%w: --%s", errMissingFlag, name)
}
