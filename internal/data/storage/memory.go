package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/songzhibin97/tokensim/internal/data"
	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"
)

// MemoryStorage is an in-memory implementation of data.SimulationStorage.
// It backs the HTTP service when no database is configured.
type MemoryStorage struct {
	mu        sync.RWMutex
	data      map[uuid.UUID]*engine.Simulation
	intervals map[uuid.UUID][]models.SimulationReport
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data:      make(map[uuid.UUID]*engine.Simulation),
		intervals: make(map[uuid.UUID][]models.SimulationReport),
	}
}

// SaveSimulation stores a copy of sim without its interval reports.
func (s *MemoryStorage) SaveSimulation(_ context.Context, sim *engine.Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	simCopy := *sim
	simCopy.IntervalReports = nil
	s.data[sim.ID] = &simCopy
	return nil
}

func (s *MemoryStorage) SaveIntervalReports(_ context.Context, sim *engine.Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intervals[sim.ID] = slices.Clone(sim.IntervalReports)
	return nil
}

func (s *MemoryStorage) GetSimulation(_ context.Context, id uuid.UUID) (*engine.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sim, exists := s.data[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	simCopy := *sim
	simCopy.IntervalReports = slices.Clone(s.intervals[id])
	if simCopy.IntervalReports == nil {
		simCopy.IntervalReports = []models.SimulationReport{}
	}
	return &simCopy, nil
}

// ListSimulations returns up to limit simulations, newest first.
func (s *MemoryStorage) ListSimulations(_ context.Context, limit int) ([]*engine.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*engine.Simulation, 0, len(s.data))
	for _, sim := range s.data {
		simCopy := *sim
		result = append(result, &simCopy)
	}

	// Sort by created_at DESC
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ data.SimulationStorage = (*MemoryStorage)(nil)
