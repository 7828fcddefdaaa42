package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"evolvenet/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// MemoryStore keeps encoded payloads so callers never share slices with it.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	networks    map[string][]byte
	runs        map[string][]byte
	history     map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.reset()
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.reset()
	return nil
}

func (s *MemoryStore) reset() {
	s.networks = make(map[string][]byte)
	s.runs = make(map[string][]byte)
	s.history = make(map[string][]byte)
}

func (s *MemoryStore) SaveNetwork(_ context.Context, network model.NetworkRecord) error {
	payload, err := EncodeNetwork(network)
	if err != nil {
		return err
	}
	return s.put(s.networksMap, network.ID, payload)
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (model.NetworkRecord, bool, error) {
	payload, ok, err := s.get(s.networksMap, id)
	if err != nil || !ok {
		return model.NetworkRecord{}, false, err
	}
	network, err := DecodeNetwork(payload)
	if err != nil {
		return model.NetworkRecord{}, false, fmt.Errorf("decode network %s: %w", id, err)
	}
	return network, true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	return s.put(s.runsMap, run.ID, payload)
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	payload, ok, err := s.get(s.runsMap, id)
	if err != nil || !ok {
		return model.RunRecord{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	runs := make([]model.RunRecord, 0, len(s.runs))
	for id, payload := range s.runs {
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	sortRunsNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	payload, err := EncodeFitnessHistory(history)
	if err != nil {
		return err
	}
	return s.put(s.historyMap, runID, payload)
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	payload, ok, err := s.get(s.historyMap, runID)
	if err != nil || !ok {
		return nil, false, err
	}
	history, err := DecodeFitnessHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode fitness history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *MemoryStore) networksMap() map[string][]byte { return s.networks }
func (s *MemoryStore) runsMap() map[string][]byte     { return s.runs }
func (s *MemoryStore) historyMap() map[string][]byte  { return s.history }

func (s *MemoryStore) put(table func() map[string][]byte, id string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	table()[id] = payload
	return nil
}

func (s *MemoryStore) get(table func() map[string][]byte, id string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	payload, ok := table()[id]
	return payload, ok, nil
}
