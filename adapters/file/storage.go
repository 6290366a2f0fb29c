package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"rosterkit/codec"
	"rosterkit/core"
)

// Store persists the roster to a single file. The format follows the file
// extension (see codec.ForPath); writes are atomic.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("file store requires a path")
	}
	return &Store{path: path}, nil
}

func (s *Store) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return codec.WriteFile(s.path, records)
}

// Load decodes the file. A missing file is core.ErrNotFound.
func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := codec.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path, core.ErrNotFound)
	}
	return records, err
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Describe() string {
	return fmt.Sprintf("file:%s (%s)", s.path, codec.ForPath(s.path).Name())
}
