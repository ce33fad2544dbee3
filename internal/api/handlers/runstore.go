package handlers

import (
	"sync"

	"margin-backtest/internal/backtest"

	"github.com/google/uuid"
)

// RunStore keeps completed backtest results in memory, keyed by run ID.
// Results are immutable once stored, so reads only need the shared lock.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*backtest.Result
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*backtest.Result)}
}

// Put stores a result and returns its new ID.
func (s *RunStore) Put(result *backtest.Result) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.runs[id] = result
	s.mu.Unlock()
	return id
}

func (s *RunStore) Get(id string) (*backtest.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}
