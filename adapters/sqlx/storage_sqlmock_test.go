package sqlx_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "rosterkit/adapters/sqlx"
	"rosterkit/codec"
	"rosterkit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_Save(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	a, _ := core.NewRecord(101, "Ella Cynthia", 4.5)
	b, _ := core.NewRecord(102, "Ikenna Divine", 4.8)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM roster_records$`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM roster_records_meta`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO roster_records \(position, id, name, score\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(0, 101, "Ella Cynthia", 4.5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO roster_records `).
		WithArgs(1, 102, "Ikenna Divine", 4.8).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`INSERT INTO roster_records_meta`).WithArgs("format", codec.FormatTag).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO roster_records_meta`).WithArgs("version", "1").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`INSERT INTO roster_records_meta`).WithArgs("count", "2").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), []core.Record{a, b}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SaveRollsBackOnError(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	a, _ := core.NewRecord(1, "Ada", 3)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM roster_records$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM roster_records_meta`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO roster_records `).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	require.Error(t, store.Save(context.Background(), []core.Record{a}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Load(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT value FROM roster_records_meta WHERE name = \$1`).
		WithArgs("version").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("1"))
	mock.ExpectQuery(`SELECT id, name, score FROM roster_records ORDER BY position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "score"}).
			AddRow(102, "Ikenna Divine", 4.8).
			AddRow(101, "Ella Cynthia", 4.5))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, core.RecordID(102), got[0].ID())
	require.Equal(t, "Ella Cynthia", got[1].Name())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_LoadNothingSaved(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT value FROM roster_records_meta`).
		WithArgs("version").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_LoadRejects(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT value FROM roster_records_meta`).
		WithArgs("version").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("7"))
	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, codec.ErrUnsupportedVersion)

	mock.ExpectQuery(`SELECT value FROM roster_records_meta`).
		WithArgs("version").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("1"))
	mock.ExpectQuery(`SELECT id, name, score FROM roster_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "score"}).AddRow(5, "Zed", 9.5))
	_, err = store.Load(context.Background())
	require.True(t, core.IsValidation(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}
