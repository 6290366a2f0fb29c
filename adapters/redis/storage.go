package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rosterkit/codec"
	"rosterkit/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Prefix namespaces the roster keys.
	Prefix string
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		Prefix:       "roster",
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - {prefix}:records -> list of JSON records in roster order
// - {prefix}:meta -> hash with format, version, count and updated
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, prefix: prefixOrDefault(config.Prefix)}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefixOrDefault(prefix)}
}

func prefixOrDefault(p string) string {
	if p == "" {
		return "roster"
	}
	return p
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) recordsKey() string { return s.prefix + ":records" }
func (s *Store) metaKey() string    { return s.prefix + ":meta" }

func (s *Store) Describe() string {
	return "redis:" + s.recordsKey()
}

// Save replaces the stored snapshot inside a MULTI/EXEC transaction.
func (s *Store) Save(ctx context.Context, records []core.Record) error {
	values := make([]any, len(records))
	for i, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", r.ID(), err)
		}
		values[i] = b
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordsKey(), s.metaKey())
	if len(values) > 0 {
		pipe.RPush(ctx, s.recordsKey(), values...)
	}
	pipe.HSet(ctx, s.metaKey(),
		"format", codec.FormatTag,
		"version", codec.CurrentVersion,
		"count", len(records),
		"updated", time.Now().UTC().Format(time.RFC3339Nano),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// Load reads the snapshot. Missing meta means nothing was saved.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	pipe := s.client.TxPipeline()
	metaCmd := pipe.HGetAll(ctx, s.metaKey())
	listCmd := pipe.LRange(ctx, s.recordsKey(), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	meta := metaCmd.Val()
	if len(meta) == 0 {
		return nil, core.ErrNotFound
	}
	if err := checkMeta(meta); err != nil {
		return nil, err
	}
	raw := listCmd.Val()
	if want, _ := strconv.Atoi(meta["count"]); want != len(raw) {
		return nil, fmt.Errorf("roster snapshot has %d records, meta says %d", len(raw), want)
	}
	out := make([]core.Record, 0, len(raw))
	for i, item := range raw {
		var r core.Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func checkMeta(meta map[string]string) error {
	if meta["format"] != codec.FormatTag {
		return fmt.Errorf("unexpected roster format %q", meta["format"])
	}
	v, err := strconv.Atoi(meta["version"])
	if err != nil {
		return fmt.Errorf("bad roster version %q: %w", meta["version"], err)
	}
	_, err = codec.Versions.Lookup(v)
	return err
}
