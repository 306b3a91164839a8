package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"evonet/internal/config"
	"evonet/pkg/evonet"
)

func openClient(cfg *config.Config, common commonFlags) (*evonet.Client, error) {
	return evonet.New(evonet.Options{
		StoreKind: cfg.Store.Kind,
		DBPath:    cfg.Store.Path,
		Logger:    common.logger(),
	})
}

func runEvolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	out := fs.String("out", "", "write the evolved network here instead of back to <file>")
	gens := fs.Int("gens", config.DefaultGenerations, "generations to evolve")
	snapshotEvery := fs.Int("snapshot-every", config.DefaultSnapshotEvery, "archive every Nth generation")
	maxDepth := fs.Int("max-depth", config.DefaultEvolveMaxDepth, "maximum propagation depth when evaluating each generation")
	evalTimeout := fs.Int("eval-timeout-ms", config.DefaultEvalTimeoutMS, "time limit for evaluating one generation in milliseconds, 0 for none")
	inputsFlag := fs.String("inputs", "", "comma separated input values used to evaluate each generation")
	seed := fs.Int64("seed", config.DefaultSeed, "random seed")
	common := addCommonFlags(fs)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("evolve", positional, "<file>"); err != nil {
		return err
	}
	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if isSet(fs, "gens") {
		cfg.Evolve.Generations = *gens
	}
	if isSet(fs, "snapshot-every") {
		cfg.Evolve.SnapshotEvery = *snapshotEvery
	}
	if isSet(fs, "max-depth") {
		cfg.Evolve.MaxDepth = *maxDepth
	}
	if isSet(fs, "eval-timeout-ms") {
		cfg.Evolve.EvalTimeoutMS = *evalTimeout
	}
	if isSet(fs, "seed") {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	inputs, err := parseFloats(*inputsFlag)
	if err != nil {
		return err
	}

	client, err := openClient(cfg, common)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Evolve(ctx, evonet.EvolveRequest{
		Path:          positional[0],
		OutPath:       *out,
		Generations:   cfg.Evolve.Generations,
		SnapshotEvery: cfg.Evolve.SnapshotEvery,
		MaxDepth:      cfg.Evolve.MaxDepth,
		EvalTimeout:   cfg.EvalTimeout(),
		Inputs:        inputs,
		Seed:          cfg.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run_id=%s generations=%d archived=%d nodes=%d connections=%d\n",
		summary.RunID, summary.Generations, summary.Archived, summary.FinalNodes, summary.FinalConnections)
	if summary.FinalRunError != "" {
		fmt.Printf("final_outputs=unavailable error=%q\n", summary.FinalRunError)
	} else {
		fmt.Printf("final_outputs=%s\n", formatFloats(summary.FinalOutputs))
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}
	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	client, err := openClient(cfg, common)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string `json:"run_id"`
			CreatedAtUTC     string `json:"created_at_utc"`
			NetworkID        uint64 `json:"network_id"`
			NetworkName      string `json:"network_name"`
			Seed             int64  `json:"seed"`
			Generations      int    `json:"generations"`
			FinalNodes       int    `json:"final_nodes"`
			FinalConnections int    `json:"final_connections"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, run := range runs {
			items = append(items, runsItem(run))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("run_id=%s created=%s network=%d name=%q seed=%d generations=%d nodes=%d connections=%d\n",
			run.RunID, humanizeCreated(run.CreatedAtUTC), run.NetworkID, run.NetworkName,
			run.Seed, run.Generations, run.FinalNodes, run.FinalConnections)
	}
	return nil
}

func runSnapshots(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	jsonOut := fs.Bool("json", false, "emit snapshots as JSON")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("snapshots requires --run")
	}
	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	client, err := openClient(cfg, common)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshots, err := client.Snapshots(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		type snapshotsItem struct {
			Generation      int       `json:"generation"`
			Mutation        string    `json:"mutation"`
			NodeCount       int       `json:"node_count"`
			ConnectionCount int       `json:"connection_count"`
			PayloadBytes    int       `json:"payload_bytes"`
			Outputs         []float32 `json:"outputs"`
			RunError        string    `json:"run_error,omitempty"`
		}
		items := make([]snapshotsItem, 0, len(snapshots))
		for _, snapshot := range snapshots {
			items = append(items, snapshotsItem(snapshot))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, snapshot := range snapshots {
		outputs := formatFloats(snapshot.Outputs)
		if snapshot.RunError != "" {
			outputs = "unavailable"
		}
		fmt.Printf("generation=%d mutation=%q nodes=%d connections=%d size=%s outputs=%s\n",
			snapshot.Generation, snapshot.Mutation, snapshot.NodeCount, snapshot.ConnectionCount,
			humanize.Bytes(uint64(snapshot.PayloadBytes)), outputs)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	generation := fs.Int("gen", -1, "generation to export (default: latest archived)")
	out := fs.String("out", "", "output container file")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("export requires --run")
	}
	if *out == "" {
		return errors.New("export requires --out")
	}
	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	client, err := openClient(cfg, common)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, *runID, *generation, *out)
	if err != nil {
		return err
	}
	fmt.Printf("exported run=%s generation=%d to %s (%s)\n",
		summary.RunID, summary.Generation, summary.Path, humanize.Bytes(uint64(summary.Bytes)))
	return nil
}

func humanizeCreated(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(created)
}
