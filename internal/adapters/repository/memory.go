package repository

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/types"
)

// snapshot is an immutable view of one run. Readers never lock.
type snapshot struct {
	run       Run
	bySeason  map[int]int
	champions map[int]int
	// seasons is sorted most recent first.
	seasons []int
}

func newSnapshot(run Run) *snapshot {
	s := &snapshot{
		run:       run,
		bySeason:  make(map[int]int, len(run.Seasons)),
		champions: make(map[int]int, len(run.Historical)),
		seasons:   make([]int, 0, len(run.Seasons)),
	}
	for i, sp := range run.Seasons {
		s.bySeason[sp.Season] = i
		s.seasons = append(s.seasons, sp.Season)
	}
	for i, h := range run.Historical {
		s.champions[h.Season] = i
	}
	sort.Sort(sort.Reverse(sort.IntSlice(s.seasons)))
	return s
}

// MemoryStore keeps the latest run in process.
type MemoryStore struct {
	current atomic.Pointer[snapshot]
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) load() (*snapshot, error) {
	s := m.current.Load()
	if s == nil {
		return nil, fmt.Errorf("%w: no run stored", ErrNotFound)
	}
	return s, nil
}

// SaveRun publishes run as the current snapshot.
func (m *MemoryStore) SaveRun(_ context.Context, run Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	m.current.Store(newSnapshot(run))
	return nil
}

func (m *MemoryStore) Predictions(_ context.Context, season int) (types.SeasonPredictions, error) {
	s, err := m.load()
	if err != nil {
		return types.SeasonPredictions{}, err
	}
	i, ok := s.bySeason[model.SeasonYear(season)]
	if !ok {
		return types.SeasonPredictions{}, fmt.Errorf("%w: season %d", ErrNotFound, season)
	}
	return s.run.Seasons[i], nil
}

func (m *MemoryStore) Latest(context.Context) (types.SeasonPredictions, error) {
	s, err := m.load()
	if err != nil {
		return types.SeasonPredictions{}, err
	}
	return s.run.Seasons[s.bySeason[s.seasons[0]]], nil
}

func (m *MemoryStore) Seasons(context.Context) ([]int, error) {
	s, err := m.load()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), s.seasons...), nil
}

func (m *MemoryStore) Historical(context.Context) ([]types.HistoricalRecord, error) {
	s, err := m.load()
	if err != nil {
		return nil, err
	}
	return s.run.Historical, nil
}

func (m *MemoryStore) Champion(_ context.Context, season int) (types.HistoricalRecord, error) {
	s, err := m.load()
	if err != nil {
		return types.HistoricalRecord{}, err
	}
	i, ok := s.champions[model.SeasonYear(season)]
	if !ok {
		return types.HistoricalRecord{}, fmt.Errorf("%w: no champion for season %d", ErrNotFound, season)
	}
	return s.run.Historical[i], nil
}

func (m *MemoryStore) Teams(context.Context) ([]model.Team, error) {
	s, err := m.load()
	if err != nil {
		return nil, err
	}
	return s.run.Teams, nil
}

func (m *MemoryStore) Importance(context.Context) ([]types.FeatureImportance, error) {
	s, err := m.load()
	if err != nil {
		return nil, err
	}
	return s.run.Importance, nil
}

func (m *MemoryStore) Stats(context.Context) (types.RunStats, error) {
	s, err := m.load()
	if err != nil {
		return types.RunStats{}, err
	}
	return s.run.Stats, nil
}
