package evonet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"evonet/internal/network"
)

func writeSeedNetwork(t *testing.T, dir string) string {
	t.Helper()
	net, err := NewNetwork("seed", "relu")
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	in := net.Create(network.KindInput)
	out := net.Create(network.KindOutput)
	if _, err := net.Connect(in, out); err != nil {
		t.Fatalf("connect: %v", err)
	}
	path := filepath.Join(dir, "seed.zenml")
	if err := Save(path, net); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientEvolveRunsSnapshotsAndExport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seedPath := writeSeedNetwork(t, dir)
	outPath := filepath.Join(dir, "evolved.zenml")
	client := newMemoryClient(t)

	summary, err := client.Evolve(ctx, EvolveRequest{
		Path:          seedPath,
		OutPath:       outPath,
		Generations:   4,
		SnapshotEvery: 2,
		MaxDepth:      20,
		Inputs:        []float32{1},
		Seed:          11,
	})
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if summary.Archived != 3 {
		t.Fatalf("expected generations 0, 2 and 4 archived, got %d", summary.Archived)
	}

	evolved, err := Load(outPath)
	if err != nil {
		t.Fatalf("load evolved: %v", err)
	}
	if evolved.Len() != summary.FinalNodes || evolved.ConnectionCount() != summary.FinalConnections {
		t.Fatalf("written network does not match summary: %+v", summary)
	}
	seed, err := Load(seedPath)
	if err != nil {
		t.Fatalf("reload seed: %v", err)
	}
	if seed.Len() != 2 {
		t.Fatalf("seed file should be untouched when OutPath is set, got %d nodes", seed.Len())
	}

	runs, err := client.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID || runs[0].NetworkName != "seed" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	snapshots, err := client.Snapshots(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snapshots) != 3 || snapshots[2].Generation != 4 {
		t.Fatalf("unexpected snapshots: %+v", snapshots)
	}
	if snapshots[0].PayloadBytes == 0 {
		t.Fatal("expected snapshot payload size")
	}

	exportPath := filepath.Join(dir, "gen0.zenml")
	exported, err := client.Export(ctx, summary.RunID, 0, exportPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.Generation != 0 {
		t.Fatalf("unexpected export: %+v", exported)
	}
	gen0, err := Load(exportPath)
	if err != nil {
		t.Fatalf("load export: %v", err)
	}
	if gen0.Len() != 2 || gen0.ID() != seed.ID() {
		t.Fatalf("exported generation 0 should match the seed, got %d nodes id %d", gen0.Len(), gen0.ID())
	}

	latest, err := client.Export(ctx, summary.RunID, -1, filepath.Join(dir, "latest.zenml"))
	if err != nil {
		t.Fatalf("export latest: %v", err)
	}
	if latest.Generation != 4 {
		t.Fatalf("expected latest generation 4, got %d", latest.Generation)
	}
}

func TestClientEvolveWritesBackInPlace(t *testing.T) {
	ctx := context.Background()
	path := writeSeedNetwork(t, t.TempDir())
	client := newMemoryClient(t)

	summary, err := client.Evolve(ctx, EvolveRequest{Path: path, Generations: 6, Inputs: []float32{1}, Seed: 2})
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	net, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if net.Len() != summary.FinalNodes {
		t.Fatalf("expected evolved network written back, got %d nodes want %d", net.Len(), summary.FinalNodes)
	}
}

func TestClientNotFound(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	if _, err := client.Snapshots(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := client.Export(ctx, "missing", 0, filepath.Join(t.TempDir(), "x.zenml")); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}

	dir := t.TempDir()
	summary, err := client.Evolve(ctx, EvolveRequest{Path: writeSeedNetwork(t, dir), Generations: 1, Inputs: []float32{1}})
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if _, err := client.Export(ctx, summary.RunID, 99, filepath.Join(dir, "x.zenml")); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestClientSQLiteRunsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "evonet.db")

	first, err := New(Options{StoreKind: "sqlite", DBPath: dbPath})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	summary, err := first.Evolve(ctx, EvolveRequest{Path: writeSeedNetwork(t, dir), Generations: 2, Inputs: []float32{1}})
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := New(Options{StoreKind: "sqlite", DBPath: dbPath})
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	runs, err := second.Runs(ctx, 5)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("unexpected runs after reopen: %+v", runs)
	}
}

func TestNewRejectsUnknownStore(t *testing.T) {
	if _, err := New(Options{StoreKind: "redis"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
}
