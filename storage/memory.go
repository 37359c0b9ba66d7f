package storage

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// MemoryStore 内存中的结果表
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]Result)}
}

func (s *MemoryStore) RecordResult(ctx context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.Strategy] = r
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, strategy string) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[strategy]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNoData, strategy)
	}
	return r, nil
}

func (s *MemoryStore) All(ctx context.Context) (map[string]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.results), nil
}
