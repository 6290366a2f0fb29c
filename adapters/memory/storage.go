package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"rosterkit/core"
)

// Store keeps the last saved roster snapshot in process memory.
type Store struct {
	mu      sync.Mutex
	records []core.Record
	saved   bool
	updated time.Time
}

func New() *Store { return &Store{} }

func (s *Store) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.Clone(records)
	s.saved = true
	s.updated = time.Now().UTC()
	return nil
}

// Load returns a copy of the last snapshot, or core.ErrNotFound before the
// first Save.
func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, core.ErrNotFound
	}
	return slices.Clone(s.records), nil
}

// Updated reports when the snapshot was last saved.
func (s *Store) Updated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

func (s *Store) Describe() string { return "memory" }
