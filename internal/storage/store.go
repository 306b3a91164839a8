package storage

import (
	"context"

	"evonet/internal/model"
)

// Store archives evolution runs and their per-generation network snapshots.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error
	GetSnapshot(ctx context.Context, runID string, generation int) (model.Snapshot, bool, error)
	// ListSnapshots returns a run's snapshots by ascending generation.
	ListSnapshots(ctx context.Context, runID string) ([]model.Snapshot, error)
}
