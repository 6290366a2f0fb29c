package engine

import (
	"context"

	"rosterkit/core"
)

// Storage persists a whole roster snapshot. Load returns core.ErrNotFound
// when nothing has been saved yet.
type Storage interface {
	Save(ctx context.Context, records []core.Record) error
	Load(ctx context.Context) ([]core.Record, error)
}

// Describer is implemented by storages that can name their target for logs
// and events (a file path, a redis key, a table, an object key).
type Describer interface {
	Describe() string
}
