package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"evonet/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	snapshots   map[string][]model.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.snapshots = make(map[string][]model.Snapshot)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	run.Inputs = slices.Clone(run.Inputs)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	run.Inputs = slices.Clone(run.Inputs)
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.Inputs = slices.Clone(run.Inputs)
		runs = append(runs, run)
	}
	sortRunsNewestFirst(runs)
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, id)
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	snapshot = cloneSnapshot(snapshot)
	list := s.snapshots[snapshot.RunID]
	idx, found := slices.BinarySearchFunc(list, snapshot.Generation, func(item model.Snapshot, gen int) int {
		return item.Generation - gen
	})
	if found {
		list[idx] = snapshot
	} else {
		list = slices.Insert(list, idx, snapshot)
	}
	s.snapshots[snapshot.RunID] = list
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string, generation int) (model.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snapshot := range s.snapshots[runID] {
		if snapshot.Generation == generation {
			return cloneSnapshot(snapshot), true, nil
		}
	}
	return model.Snapshot{}, false, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, runID string) ([]model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[runID]
	out := make([]model.Snapshot, 0, len(list))
	for _, snapshot := range list {
		out = append(out, cloneSnapshot(snapshot))
	}
	return out, nil
}

func cloneSnapshot(snapshot model.Snapshot) model.Snapshot {
	snapshot.Outputs = slices.Clone(snapshot.Outputs)
	snapshot.Payload = slices.Clone(snapshot.Payload)
	return snapshot
}

func sortRunsNewestFirst(runs []model.RunRecord) {
	slices.SortFunc(runs, func(a, b model.RunRecord) int {
		if a.CreatedAtUTC != b.CreatedAtUTC {
			if a.CreatedAtUTC > b.CreatedAtUTC {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
