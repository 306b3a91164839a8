package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"evonet/internal/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg != *Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Store.Kind != storage.KindSQLite || cfg.Store.Path != DefaultDBPath {
		t.Fatalf("unexpected default store: %+v", cfg.Store)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "evonet.yaml", `
max_depth: 0
activation: tanh
seed: 42
store:
  kind: memory
evolve:
  generations: 25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxDepth != 0 {
		t.Fatalf("expected explicit zero depth to survive, got %d", cfg.MaxDepth)
	}
	if cfg.Activation != "tanh" || cfg.Seed != 42 {
		t.Fatalf("unexpected network settings: %+v", cfg)
	}
	if cfg.Store.Kind != storage.KindMemory {
		t.Fatalf("unexpected store kind: %q", cfg.Store.Kind)
	}
	if cfg.Evolve.Generations != 25 || cfg.Evolve.SnapshotEvery != DefaultSnapshotEvery || cfg.Evolve.MaxDepth != DefaultEvolveMaxDepth {
		t.Fatalf("unexpected evolve settings: %+v", cfg.Evolve)
	}
}

func TestLoadINI(t *testing.T) {
	path := writeFile(t, "evonet.ini", `
[network]
max_depth = 64
activation = sigmoid
seed = 9

[store]
kind = sqlite
path = runs.db

[evolve]
generations = 3
snapshot_every = 2
max_depth = 8
eval_timeout_ms = 500
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		MaxDepth:   64,
		Activation: "sigmoid",
		Seed:       9,
		Store:      StoreConfig{Kind: storage.KindSQLite, Path: "runs.db"},
		Evolve:     EvolveConfig{Generations: 3, SnapshotEvery: 2, MaxDepth: 8, EvalTimeoutMS: 500},
	}
	if *cfg != want {
		t.Fatalf("unexpected config:\nwant %+v\ngot  %+v", want, *cfg)
	}
}

func TestLoadINIMissingSectionsKeepDefaults(t *testing.T) {
	path := writeFile(t, "evonet.ini", "[network]\nactivation = step\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Activation != "step" {
		t.Fatalf("unexpected activation: %q", cfg.Activation)
	}
	if cfg.MaxDepth != Default().MaxDepth || cfg.Store != Default().Store {
		t.Fatalf("expected defaults for absent keys, got %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{name: "negative depth", file: "c.yaml", content: "max_depth: -1\n"},
		{name: "unknown activation", file: "c.yaml", content: "activation: nope\n"},
		{name: "unknown store", file: "c.ini", content: "[store]\nkind = redis\n"},
		{name: "negative generations", file: "c.yml", content: "evolve:\n  generations: -2\n"},
		{name: "negative evolve depth", file: "c.ini", content: "[evolve]\nmax_depth = -1\n"},
		{name: "negative eval timeout", file: "c.yaml", content: "evolve:\n  eval_timeout_ms: -5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.content))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load(writeFile(t, "evonet.toml", "max_depth = 1\n"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Activation = "abs"
	cfg.Seed = 42
	cfg.Store = StoreConfig{Kind: storage.KindSQLite, Path: "runs.db"}
	cfg.Evolve.Generations = 4
	cfg.Evolve.MaxDepth = 6

	for _, name := range []string{"saved.yaml", "saved.yml", "saved.ini"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := cfg.Save(path); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if *loaded != *cfg {
				t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", *cfg, *loaded)
			}
		})
	}
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	err := Default().Save(filepath.Join(t.TempDir(), "saved.toml"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDefaultEvolveSettings(t *testing.T) {
	cfg := Default()
	if cfg.Evolve.MaxDepth != DefaultEvolveMaxDepth || cfg.Evolve.MaxDepth >= cfg.MaxDepth {
		t.Fatalf("expected a small evolve depth, got %d (run depth %d)", cfg.Evolve.MaxDepth, cfg.MaxDepth)
	}
	if got := cfg.EvalTimeout(); got != 2*time.Second {
		t.Fatalf("unexpected eval timeout: %s", got)
	}
}
