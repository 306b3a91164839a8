// Package evolve drives a network through successive generations of
// mutation, evaluates each generation and archives snapshots.
package evolve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"evonet/internal/container"
	"evonet/internal/model"
	"evonet/internal/network"
	"evonet/internal/storage"
)

type Config struct {
	Generations int
	// SnapshotEvery archives every Nth generation. Generation 0 and the final
	// generation are always archived.
	SnapshotEvery int
	MaxDepth      int
	// EvalTimeout bounds the evaluation of one generation. An evaluation that
	// runs out of time is recorded as the generation's RunErr. Zero disables it.
	EvalTimeout time.Duration
	Inputs      []float32
	Seed        int64
	Store       storage.Store
	Logger      *slog.Logger
	Now         func() time.Time
}

// GenerationResult is the outcome of one generation. RunErr is set when the
// network could not be evaluated, for example after its input count changed.
type GenerationResult struct {
	Generation int
	Mutation   network.Mutation
	Outputs    []float32
	RunErr     error
	Archived   bool
}

type Result struct {
	Run         model.RunRecord
	Network     *network.Network
	Generations []GenerationResult
}

type Driver struct {
	cfg Config
	rng *rand.Rand
}

func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("generations must be >= 0")
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", network.ErrInvalidDepth, cfg.MaxDepth)
	}
	if cfg.EvalTimeout < 0 {
		return nil, fmt.Errorf("eval timeout must be >= 0")
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Driver{
		cfg: cfg,
		rng: network.NewRand(cfg.Seed),
	}, nil
}

// Run evolves a copy of initial; the caller's network is left untouched.
func (d *Driver) Run(ctx context.Context, initial *network.Network) (Result, error) {
	if initial == nil {
		return Result{}, fmt.Errorf("network is required")
	}

	net := initial.Clone()
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		NetworkID:       net.ID(),
		NetworkName:     net.Name(),
		Activation:      net.Activation(),
		Seed:            d.cfg.Seed,
		Generations:     d.cfg.Generations,
		MaxDepth:        d.cfg.MaxDepth,
		Inputs:          d.cfg.Inputs,
		CreatedAtUTC:    d.cfg.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := d.cfg.Store.SaveRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("save run: %w", err)
	}
	log := d.cfg.Logger.With("run", run.ID)
	log.Info("evolution started",
		"network", net.ID(),
		"nodes", net.Len(),
		"generations", d.cfg.Generations,
		"seed", d.cfg.Seed,
	)

	results := make([]GenerationResult, 0, d.cfg.Generations+1)
	seed, err := d.step(ctx, run.ID, 0, net, network.Mutation{Op: network.OpNoop})
	if err != nil {
		return Result{}, err
	}
	results = append(results, seed)

	for gen := 1; gen <= d.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		mutation, err := net.Mutate(d.rng)
		if err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		result, err := d.step(ctx, run.ID, gen, net, mutation)
		if err != nil {
			return Result{}, err
		}
		results = append(results, result)
	}

	run.FinalNodes = net.Len()
	run.FinalConnections = net.ConnectionCount()
	if err := d.cfg.Store.SaveRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("save run: %w", err)
	}
	log.Info("evolution finished", "nodes", run.FinalNodes, "connections", run.FinalConnections)

	return Result{Run: run, Network: net, Generations: results}, nil
}

func (d *Driver) step(ctx context.Context, runID string, gen int, net *network.Network, mutation network.Mutation) (GenerationResult, error) {
	result := GenerationResult{Generation: gen, Mutation: mutation}
	result.Outputs, result.RunErr = d.evaluate(ctx, net)
	if err := ctx.Err(); err != nil {
		return GenerationResult{}, fmt.Errorf("generation %d: %w", gen, err)
	}

	d.cfg.Logger.Debug("generation",
		"run", runID,
		"generation", gen,
		"mutation", mutation.String(),
		"nodes", net.Len(),
		"outputs", result.Outputs,
		"run_error", result.RunErr,
	)

	if !d.shouldArchive(gen) {
		return result, nil
	}
	payload, err := container.Marshal(container.NewNetworkFile(net))
	if err != nil {
		return GenerationResult{}, fmt.Errorf("generation %d: encode snapshot: %w", gen, err)
	}
	snapshot := model.Snapshot{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Generation:      gen,
		Mutation:        mutation.String(),
		NodeCount:       net.Len(),
		ConnectionCount: net.ConnectionCount(),
		Outputs:         result.Outputs,
		Payload:         payload,
	}
	if result.RunErr != nil {
		snapshot.RunError = result.RunErr.Error()
	}
	if err := d.cfg.Store.SaveSnapshot(ctx, snapshot); err != nil {
		return GenerationResult{}, fmt.Errorf("generation %d: save snapshot: %w", gen, err)
	}
	result.Archived = true
	return result, nil
}

// evaluate runs a copy so the evolving network's node values stay untouched.
// Arity mismatches are expected once mutation removes or adds Input nodes and
// are reported rather than aborting the run, as is an evaluation timeout.
func (d *Driver) evaluate(ctx context.Context, net *network.Network) ([]float32, error) {
	if d.cfg.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.EvalTimeout)
		defer cancel()
	}
	return net.Clone().RunContext(ctx, d.cfg.Inputs, d.cfg.MaxDepth)
}

func (d *Driver) shouldArchive(gen int) bool {
	return gen == 0 || gen == d.cfg.Generations || gen%d.cfg.SnapshotEvery == 0
}
