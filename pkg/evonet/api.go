// Package evonet is the public entry point for loading, evolving and
// archiving evolvable networks.
package evonet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"evonet/internal/config"
	"evonet/internal/container"
	"evonet/internal/evolve"
	"evonet/internal/model"
	"evonet/internal/network"
	"evonet/internal/storage"
)

type (
	Network = network.Network
	NodeID  = network.NodeID
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Load reads a network container file.
func Load(path string) (*Network, error) {
	return container.ReadNetwork(path)
}

// Save writes net to path as a network container file.
func Save(path string, net *Network) error {
	return container.WriteNetwork(path, net)
}

// NewNetwork creates an empty network with a fresh id. An empty activation
// selects the default.
func NewNetwork(name, activation string) (*Network, error) {
	return network.New(network.Options{Name: name, Activation: activation})
}

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
}

type EvolveRequest struct {
	// Path is the network file to evolve. The final network is written to
	// OutPath, or back to Path when OutPath is empty.
	Path          string
	OutPath       string
	Generations   int
	SnapshotEvery int
	MaxDepth      int
	// EvalTimeout bounds the evaluation of each generation; zero disables it.
	EvalTimeout time.Duration
	Inputs      []float32
	Seed        int64
}

type EvolveSummary struct {
	RunID            string
	Generations      int
	Archived         int
	FinalNodes       int
	FinalConnections int
	// FinalOutputs is nil when the final generation could not be run.
	FinalOutputs  []float32
	FinalRunError string
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	NetworkID        uint64
	NetworkName      string
	Seed             int64
	Generations      int
	FinalNodes       int
	FinalConnections int
}

type SnapshotItem struct {
	Generation      int
	Mutation        string
	NodeCount       int
	ConnectionCount int
	PayloadBytes    int
	Outputs         []float32
	RunError        string
}

type ExportSummary struct {
	RunID      string
	Generation int
	Path       string
	Bytes      int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, logger: opts.Logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

func (c *Client) Evolve(ctx context.Context, req EvolveRequest) (EvolveSummary, error) {
	if req.Path == "" {
		return EvolveSummary{}, errors.New("evolve requires a network path")
	}
	if req.OutPath == "" {
		req.OutPath = req.Path
	}
	if err := c.Init(ctx); err != nil {
		return EvolveSummary{}, err
	}

	net, err := Load(req.Path)
	if err != nil {
		return EvolveSummary{}, err
	}
	driver, err := evolve.NewDriver(evolve.Config{
		Generations:   req.Generations,
		SnapshotEvery: req.SnapshotEvery,
		MaxDepth:      req.MaxDepth,
		EvalTimeout:   req.EvalTimeout,
		Inputs:        req.Inputs,
		Seed:          req.Seed,
		Store:         c.store,
		Logger:        c.logger,
	})
	if err != nil {
		return EvolveSummary{}, err
	}
	result, err := driver.Run(ctx, net)
	if err != nil {
		return EvolveSummary{}, err
	}
	if err := Save(req.OutPath, result.Network); err != nil {
		return EvolveSummary{}, err
	}

	summary := EvolveSummary{
		RunID:            result.Run.ID,
		Generations:      req.Generations,
		FinalNodes:       result.Run.FinalNodes,
		FinalConnections: result.Run.FinalConnections,
	}
	for _, gen := range result.Generations {
		if gen.Archived {
			summary.Archived++
		}
	}
	last := result.Generations[len(result.Generations)-1]
	summary.FinalOutputs = last.Outputs
	if last.RunErr != nil {
		summary.FinalRunError = last.RunErr.Error()
	}
	return summary, nil
}

// Runs lists archived runs newest first. A non-positive limit defaults to 20.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	out := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunItem{
			RunID:            run.ID,
			CreatedAtUTC:     run.CreatedAtUTC,
			NetworkID:        run.NetworkID,
			NetworkName:      run.NetworkName,
			Seed:             run.Seed,
			Generations:      run.Generations,
			FinalNodes:       run.FinalNodes,
			FinalConnections: run.FinalConnections,
		})
	}
	return out, nil
}

func (c *Client) Snapshots(ctx context.Context, runID string) ([]SnapshotItem, error) {
	if err := c.requireRun(ctx, runID); err != nil {
		return nil, err
	}

	snapshots, err := c.store.ListSnapshots(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]SnapshotItem, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, SnapshotItem{
			Generation:      snapshot.Generation,
			Mutation:        snapshot.Mutation,
			NodeCount:       snapshot.NodeCount,
			ConnectionCount: snapshot.ConnectionCount,
			PayloadBytes:    len(snapshot.Payload),
			Outputs:         snapshot.Outputs,
			RunError:        snapshot.RunError,
		})
	}
	return out, nil
}

// Export writes an archived snapshot to path as a container file. A negative
// generation selects the run's latest snapshot.
func (c *Client) Export(ctx context.Context, runID string, generation int, path string) (ExportSummary, error) {
	if path == "" {
		return ExportSummary{}, errors.New("export requires an output path")
	}
	if err := c.requireRun(ctx, runID); err != nil {
		return ExportSummary{}, err
	}

	snapshot, err := c.snapshot(ctx, runID, generation)
	if err != nil {
		return ExportSummary{}, err
	}
	file, err := container.Unmarshal(snapshot.Payload)
	if err != nil {
		return ExportSummary{}, fmt.Errorf("decode snapshot %s/%d: %w", runID, snapshot.Generation, err)
	}
	if err := container.Write(path, file); err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{
		RunID:      runID,
		Generation: snapshot.Generation,
		Path:       path,
		Bytes:      len(snapshot.Payload),
	}, nil
}

func (c *Client) snapshot(ctx context.Context, runID string, generation int) (model.Snapshot, error) {
	if generation >= 0 {
		snapshot, ok, err := c.store.GetSnapshot(ctx, runID, generation)
		if err != nil {
			return model.Snapshot{}, err
		}
		if !ok {
			return model.Snapshot{}, fmt.Errorf("%w: %s/%d", ErrSnapshotNotFound, runID, generation)
		}
		return snapshot, nil
	}

	snapshots, err := c.store.ListSnapshots(ctx, runID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if len(snapshots) == 0 {
		return model.Snapshot{}, fmt.Errorf("%w: %s has no snapshots", ErrSnapshotNotFound, runID)
	}
	return snapshots[len(snapshots)-1], nil
}

func (c *Client) requireRun(ctx context.Context, runID string) error {
	if runID == "" {
		return errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	_, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
