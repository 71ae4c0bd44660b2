package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"gridwalk/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	order       []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.order = nil
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return cloneRun(run), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type indexed struct {
		run model.RunRecord
		idx int
	}
	items := make([]indexed, 0, len(s.order))
	for i, id := range s.order {
		items = append(items, indexed{run: s.runs[id], idx: i})
	}
	sort.Slice(items, func(i, j int) bool {
		if c := model.CompareTimestamps(items[i].run.CreatedAtUTC, items[j].run.CreatedAtUTC); c != 0 {
			return c > 0
		}
		return items[i].idx > items[j].idx
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]model.RunRecord, 0, len(items))
	for _, item := range items {
		out = append(out, cloneRun(item.run))
	}
	return out, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return nil
	}
	delete(s.runs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneRun(run model.RunRecord) model.RunRecord {
	run.FieldMap = cloneRows(run.FieldMap)
	run.ExploitMap = cloneRows(run.ExploitMap)
	run.MemoryMap = cloneRows(run.MemoryMap)
	run.WalkMap = cloneRows(run.WalkMap)
	return run
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
