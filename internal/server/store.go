package server

import (
	"context"
	"sync"

	"MarketPulse/internal/model"
)

// Store keeps the latest published snapshot in memory. It is an
// output.Publisher so it can sit next to the file and Redis outputs.
type Store struct {
	mu   sync.RWMutex
	snap *model.MarketSnapshot
}

func NewStore() *Store { return &Store{} }

func (s *Store) Name() string { return "store" }

func (s *Store) Publish(_ context.Context, snap *model.MarketSnapshot) error {
	s.Set(snap)
	return nil
}

// Set replaces the latest snapshot.
func (s *Store) Set(snap *model.MarketSnapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Latest returns the latest snapshot, or nil before the first run.
func (s *Store) Latest() *model.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
