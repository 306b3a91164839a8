// Package config loads evonetctl defaults from a YAML or INI file.
//
// YAML files nest the store and evolve settings:
//
//	max_depth: 200
//	activation: tanh
//	store:
//	  kind: sqlite
//	  path: ./runs.db
//	evolve:
//	  generations: 50
//	  max_depth: 16
//	  eval_timeout_ms: 2000
//
// INI files use one section per concern: [network], [store] and [evolve].
// The top-level max_depth applies to single runs; evolve.max_depth applies to
// the evaluation of every generation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"evonet/internal/network"
	"evonet/internal/nn"
	"evonet/internal/storage"
)

const (
	DefaultDBPath        = "evonet.db"
	DefaultGenerations   = 10
	DefaultSnapshotEvery = 1
	DefaultSeed          = 1
	// DefaultEvolveMaxDepth keeps per-generation evaluation cheap; hops grow
	// with the branching of cycles raised to the depth.
	DefaultEvolveMaxDepth = 16
	DefaultEvalTimeoutMS  = 2000
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

type Config struct {
	MaxDepth   int          `yaml:"max_depth" ini:"max_depth"`
	Activation string       `yaml:"activation" ini:"activation"`
	Seed       int64        `yaml:"seed" ini:"seed"`
	Store      StoreConfig  `yaml:"store" ini:"-"`
	Evolve     EvolveConfig `yaml:"evolve" ini:"-"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" ini:"kind"`
	Path string `yaml:"path" ini:"path"`
}

type EvolveConfig struct {
	Generations int `yaml:"generations" ini:"generations"`
	// SnapshotEvery archives every Nth generation; the last one is always kept.
	SnapshotEvery int `yaml:"snapshot_every" ini:"snapshot_every"`
	MaxDepth      int `yaml:"max_depth" ini:"max_depth"`
	// EvalTimeoutMS bounds the evaluation of one generation; 0 disables it.
	EvalTimeoutMS int `yaml:"eval_timeout_ms" ini:"eval_timeout_ms"`
}

func Default() *Config {
	return &Config{
		MaxDepth:   network.DefaultMaxDepth,
		Activation: nn.DefaultActivation,
		Seed:       DefaultSeed,
		Store: StoreConfig{
			Kind: storage.DefaultStoreKind(),
			Path: DefaultDBPath,
		},
		Evolve: EvolveConfig{
			Generations:   DefaultGenerations,
			SnapshotEvery: DefaultSnapshotEvery,
			MaxDepth:      DefaultEvolveMaxDepth,
			EvalTimeoutMS: DefaultEvalTimeoutMS,
		},
	}
}

// Load reads path, or returns the defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFromPath(path)
}

// LoadFromPath decodes the file over the defaults, so absent keys keep their
// default value, then validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case ".ini":
		if err := loadINI(path, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadINI(path string, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := file.Section("network").MapTo(cfg); err != nil {
		return fmt.Errorf("map [network] section: %w", err)
	}
	if err := file.Section("store").MapTo(&cfg.Store); err != nil {
		return fmt.Errorf("map [store] section: %w", err)
	}
	if err := file.Section("evolve").MapTo(&cfg.Evolve); err != nil {
		return fmt.Errorf("map [evolve] section: %w", err)
	}
	cfg.Activation = strings.TrimSpace(cfg.Activation)
	cfg.Store.Kind = strings.TrimSpace(cfg.Store.Kind)
	cfg.Store.Path = strings.TrimSpace(cfg.Store.Path)
	return nil
}

func (c *Config) applyDefaults() {
	if c.Activation == "" {
		c.Activation = nn.DefaultActivation
	}
	if c.Store.Kind == "" {
		c.Store.Kind = storage.DefaultStoreKind()
	}
	if c.Store.Kind == storage.KindSQLite && c.Store.Path == "" {
		c.Store.Path = DefaultDBPath
	}
	if c.Evolve.SnapshotEvery <= 0 {
		c.Evolve.SnapshotEvery = DefaultSnapshotEvery
	}
}

func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must be >= 0, got %d", ErrInvalid, c.MaxDepth)
	}
	if !nn.HasActivation(c.Activation) {
		return fmt.Errorf("%w: unknown activation %q", ErrInvalid, c.Activation)
	}
	switch c.Store.Kind {
	case storage.KindMemory, storage.KindSQLite:
	default:
		return fmt.Errorf("%w: unsupported store kind %q", ErrInvalid, c.Store.Kind)
	}
	if c.Evolve.Generations < 0 {
		return fmt.Errorf("%w: generations must be >= 0, got %d", ErrInvalid, c.Evolve.Generations)
	}
	if c.Evolve.MaxDepth < 0 {
		return fmt.Errorf("%w: evolve max_depth must be >= 0, got %d", ErrInvalid, c.Evolve.MaxDepth)
	}
	if c.Evolve.EvalTimeoutMS < 0 {
		return fmt.Errorf("%w: eval_timeout_ms must be >= 0, got %d", ErrInvalid, c.Evolve.EvalTimeoutMS)
	}
	return nil
}

// EvalTimeout returns evolve.eval_timeout_ms as a duration.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.Evolve.EvalTimeoutMS) * time.Millisecond
}

// Save writes the config in the format named by the path extension, the same
// way LoadFromPath reads it.
func (c *Config) Save(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		return os.WriteFile(path, data, 0o644)
	case ".ini":
		return saveINI(path, c)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func saveINI(path string, c *Config) error {
	file := ini.Empty()
	if err := file.Section("network").ReflectFrom(c); err != nil {
		return fmt.Errorf("reflect [network] section: %w", err)
	}
	if err := file.Section("store").ReflectFrom(&c.Store); err != nil {
		return fmt.Errorf("reflect [store] section: %w", err)
	}
	if err := file.Section("evolve").ReflectFrom(&c.Evolve); err != nil {
		return fmt.Errorf("reflect [evolve] section: %w", err)
	}
	return file.SaveTo(path)
}
