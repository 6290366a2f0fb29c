package sqlx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	storage "rosterkit/adapters/sqlx"
	"rosterkit/core"
)

func newSQLiteStore(t *testing.T) *storage.Store {
	t.Helper()
	cfg := storage.DefaultConfig(storage.DriverSQLite)
	cfg.DSN = "file::memory:"
	cfg.MaxOpenConns = 1
	cfg.Table = "students"
	store, err := storage.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLite_RoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, core.ErrNotFound)

	a, _ := core.NewRecord(103, "Chris Chibuike", 4.3)
	b, _ := core.NewRecord(101, "Ella Cynthia", 4.5)
	c, _ := core.NewRecord(103, "Dup", 2)
	require.NoError(t, store.Save(ctx, []core.Record{a, b, c}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []core.Record{a, b, c}, got)

	require.NoError(t, store.Save(ctx, []core.Record{b}))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []core.Record{b}, got)
	require.Equal(t, "sql:sqlite/students", store.Describe())
}

func TestNew_Validation(t *testing.T) {
	cfg := storage.DefaultConfig(storage.DriverSQLite)
	_, err := storage.New(context.Background(), cfg)
	require.Error(t, err, "missing dsn")

	cfg.DSN = "file::memory:"
	cfg.Table = "bad; DROP TABLE x"
	_, err = storage.New(context.Background(), cfg)
	require.Error(t, err)
}
