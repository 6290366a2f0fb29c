package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"rosterkit/codec"
	"rosterkit/core"
)

// Driver names a database/sql driver registered by this package.
type Driver string

const (
	DriverPostgres Driver = "postgres" // github.com/lib/pq
	DriverPgx      Driver = "pgx"      // github.com/jackc/pgx/v5/stdlib
	DriverMySQL    Driver = "mysql"    // github.com/go-sql-driver/mysql
	DriverSQLite   Driver = "sqlite"   // modernc.org/sqlite
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver
	DSN             string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// DefaultConfig returns defaults for driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		Table:           "roster_records",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		AutoMigrate:     true,
	}
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Store keeps the roster in two tables: {table} holds one row per record
// keyed by position, {table}_meta holds format, version and count.
type Store struct {
	db     *sqlx.DB
	driver Driver
	table  string
}

// New opens and pings the database.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sql store requires a dsn")
	}
	db, err := sqlx.ConnectContext(ctx, string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	s := NewWithDB(db, cfg.Driver)
	if cfg.Table != "" {
		if !tableName.MatchString(cfg.Table) {
			_ = db.Close()
			return nil, fmt.Errorf("invalid table name %q", cfg.Table)
		}
		s.table = cfg.Table
	}
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewWithDB wraps an existing handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver, table: "roster_records"}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Describe() string {
	return fmt.Sprintf("sql:%s/%s", s.driver, s.table)
}

func (s *Store) metaTable() string { return s.table + "_meta" }

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			position INTEGER NOT NULL PRIMARY KEY,
			id INTEGER NOT NULL,
			name VARCHAR(255) NOT NULL,
			score DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.metaTable() + ` (
			name VARCHAR(64) NOT NULL PRIMARY KEY,
			value VARCHAR(255) NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

type recordRow struct {
	ID    int64   `db:"id"`
	Name  string  `db:"name"`
	Score float64 `db:"score"`
}

// Save replaces every row in one transaction.
func (s *Store) Save(ctx context.Context, records []core.Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.table); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.metaTable()); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}
	insert := tx.Rebind(`INSERT INTO ` + s.table + ` (position, id, name, score) VALUES (?, ?, ?, ?)`)
	for i, r := range records {
		if _, err := tx.ExecContext(ctx, insert, i, int64(r.ID()), r.Name(), r.Score()); err != nil {
			return fmt.Errorf("insert record %d: %w", r.ID(), err)
		}
	}
	meta := tx.Rebind(`INSERT INTO ` + s.metaTable() + ` (name, value) VALUES (?, ?)`)
	for _, kv := range [][2]string{
		{"format", codec.FormatTag},
		{"version", strconv.Itoa(codec.CurrentVersion)},
		{"count", strconv.Itoa(len(records))},
	} {
		if _, err := tx.ExecContext(ctx, meta, kv[0], kv[1]); err != nil {
			return fmt.Errorf("write meta %s: %w", kv[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the records ordered by position, or core.ErrNotFound when
// nothing was saved.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	var version string
	err := s.db.GetContext(ctx, &version, s.db.Rebind(`SELECT value FROM `+s.metaTable()+` WHERE name = ?`), "version")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	v, err := strconv.Atoi(version)
	if err != nil {
		return nil, fmt.Errorf("bad roster version %q: %w", version, err)
	}
	if _, err := codec.Versions.Lookup(v); err != nil {
		return nil, err
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, score FROM `+s.table+` ORDER BY position`); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	out := make([]core.Record, 0, len(rows))
	for i, row := range rows {
		r, err := core.NewRecord(core.RecordID(row.ID), row.Name, row.Score)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}
