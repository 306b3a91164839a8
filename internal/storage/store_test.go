package storage

import (
	"context"
	"reflect"
	"testing"

	"evonet/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		NetworkID:       11,
		NetworkName:     "net-" + id,
		Activation:      "relu",
		Seed:            1,
		Generations:     2,
		MaxDepth:        1000,
		Inputs:          []float32{1},
		CreatedAtUTC:    createdAt,
	}
}

func testSnapshot(runID string, generation int) model.Snapshot {
	return model.Snapshot{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Generation:      generation,
		Mutation:        "noop",
		NodeCount:       generation + 1,
		Outputs:         []float32{float32(generation)},
		Payload:         []byte{byte(generation), 0xAA},
	}
}

// exerciseStore runs the behaviour every Store backend shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing run: ok=%t err=%v", ok, err)
	}

	older := testRun("run-a", "2026-01-01T00:00:00Z")
	newer := testRun("run-b", "2026-02-01T00:00:00Z")
	for _, run := range []model.RunRecord{older, newer} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	loaded, ok, err := store.GetRun(ctx, older.ID)
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if !reflect.DeepEqual(loaded, older) {
		t.Fatalf("unexpected run:\nwant %+v\ngot  %+v", older, loaded)
	}

	older.FinalNodes = 9
	if err := store.SaveRun(ctx, older); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	loaded, _, _ = store.GetRun(ctx, older.ID)
	if loaded.FinalNodes != 9 {
		t.Fatalf("expected overwrite to persist, got %+v", loaded)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer.ID || runs[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", runs)
	}

	for _, gen := range []int{2, 0, 1} {
		if err := store.SaveSnapshot(ctx, testSnapshot(older.ID, gen)); err != nil {
			t.Fatalf("save snapshot %d: %v", gen, err)
		}
	}
	replaced := testSnapshot(older.ID, 1)
	replaced.Mutation = "perturb 1[0].strength"
	if err := store.SaveSnapshot(ctx, replaced); err != nil {
		t.Fatalf("replace snapshot: %v", err)
	}

	snapshots, err := store.ListSnapshots(ctx, older.ID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snapshots))
	}
	for i, snapshot := range snapshots {
		if snapshot.Generation != i {
			t.Fatalf("expected ascending generations, got %d at %d", snapshot.Generation, i)
		}
	}
	if snapshots[1].Mutation != replaced.Mutation {
		t.Fatalf("expected replaced snapshot, got %+v", snapshots[1])
	}

	got, ok, err := store.GetSnapshot(ctx, older.ID, 2)
	if err != nil || !ok {
		t.Fatalf("get snapshot: ok=%t err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, testSnapshot(older.ID, 2)) {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if _, ok, err := store.GetSnapshot(ctx, older.ID, 7); err != nil || ok {
		t.Fatalf("get missing snapshot: ok=%t err=%v", ok, err)
	}

	if err := store.DeleteRun(ctx, older.ID); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, older.ID); ok {
		t.Fatal("expected run to be deleted")
	}
	snapshots, err = store.ListSnapshots(ctx, older.ID)
	if err != nil {
		t.Fatalf("list snapshots after delete: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("expected snapshots to be deleted, got %d", len(snapshots))
	}
}
