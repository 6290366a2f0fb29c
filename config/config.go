package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rosterkit/adapters/redis"
	"rosterkit/adapters/s3"
	"rosterkit/adapters/sqlx"
	"rosterkit/core"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" yaml:"environment" env:"ROSTERKIT_ENV"`
	Profile     string      `json:"profile" yaml:"profile" env:"ROSTERKIT_PROFILE"`

	Server   ServerConfig   `json:"server" yaml:"server"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Roster   RosterConfig   `json:"roster" yaml:"roster"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Security SecurityConfig `json:"security" yaml:"security"`
	Webhooks WebhookConfig  `json:"webhooks" yaml:"webhooks"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" yaml:"address" env:"ROSTERKIT_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" yaml:"path_prefix" env:"ROSTERKIT_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" yaml:"cors_origin" env:"ROSTERKIT_SERVER_CORS_ORIGIN"`
	EnableWebSocket   bool          `json:"enable_websocket" yaml:"enable_websocket" env:"ROSTERKIT_SERVER_WEBSOCKET"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"ROSTERKIT_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"ROSTERKIT_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"ROSTERKIT_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" env:"ROSTERKIT_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"ROSTERKIT_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string      `json:"adapter" yaml:"adapter" env:"ROSTERKIT_STORAGE_ADAPTER"`
	File    FileConfig  `json:"file,omitempty" yaml:"file,omitempty"`
	Redis   RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	SQL     SQLConfig   `json:"sql,omitempty" yaml:"sql,omitempty"`
	S3      S3Config    `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// FileConfig holds roster file storage configuration. The extension picks the format.
type FileConfig struct {
	Path string `json:"path" yaml:"path" env:"ROSTERKIT_STORAGE_FILE_PATH"`
}

// RedisConfig holds Redis snapshot storage configuration
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr" env:"ROSTERKIT_STORAGE_REDIS_ADDR"`
	Password     string        `json:"password,omitempty" yaml:"password,omitempty" env:"ROSTERKIT_STORAGE_REDIS_PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"ROSTERKIT_STORAGE_REDIS_DB"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size" env:"ROSTERKIT_STORAGE_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	Prefix       string        `json:"prefix" yaml:"prefix" env:"ROSTERKIT_STORAGE_REDIS_PREFIX"`
}

// SQLConfig holds SQL table storage configuration
type SQLConfig struct {
	Driver          string        `json:"driver" yaml:"driver" env:"ROSTERKIT_STORAGE_SQL_DRIVER"`
	DSN             string        `json:"dsn,omitempty" yaml:"dsn,omitempty" env:"ROSTERKIT_STORAGE_SQL_DSN"`
	Table           string        `json:"table" yaml:"table" env:"ROSTERKIT_STORAGE_SQL_TABLE"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `json:"auto_migrate" yaml:"auto_migrate" env:"ROSTERKIT_STORAGE_SQL_AUTO_MIGRATE"`
}

// S3Config holds S3 object storage configuration
type S3Config struct {
	Region          string `json:"region" yaml:"region" env:"ROSTERKIT_STORAGE_S3_REGION"`
	Bucket          string `json:"bucket" yaml:"bucket" env:"ROSTERKIT_STORAGE_S3_BUCKET"`
	Key             string `json:"key" yaml:"key" env:"ROSTERKIT_STORAGE_S3_KEY"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ROSTERKIT_STORAGE_S3_ENDPOINT"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" env:"ROSTERKIT_STORAGE_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" env:"ROSTERKIT_STORAGE_S3_SECRET_ACCESS_KEY"`
	PathStyle       bool   `json:"path_style" yaml:"path_style" env:"ROSTERKIT_STORAGE_S3_PATH_STYLE"`
}

// RosterConfig holds roster behaviour settings
type RosterConfig struct {
	RejectDuplicates bool   `json:"reject_duplicates" yaml:"reject_duplicates" env:"ROSTERKIT_ROSTER_REJECT_DUPLICATES"`
	SeedSample       bool   `json:"seed_sample" yaml:"seed_sample" env:"ROSTERKIT_ROSTER_SEED_SAMPLE"`
	Dispatch         string `json:"dispatch" yaml:"dispatch" env:"ROSTERKIT_ROSTER_DISPATCH"`
	LoadOnStart      bool   `json:"load_on_start" yaml:"load_on_start" env:"ROSTERKIT_ROSTER_LOAD_ON_START"`
	SaveOnShutdown   bool   `json:"save_on_shutdown" yaml:"save_on_shutdown" env:"ROSTERKIT_ROSTER_SAVE_ON_SHUTDOWN"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" yaml:"level" env:"ROSTERKIT_LOG_LEVEL"`
	Format     string            `json:"format" yaml:"format" env:"ROSTERKIT_LOG_FORMAT"`
	Output     string            `json:"output" yaml:"output" env:"ROSTERKIT_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" env:"ROSTERKIT_LOG_ATTRIBUTES"`
}

// MetricsConfig holds Prometheus metrics configuration.
// An empty Address serves metrics on the API server.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" env:"ROSTERKIT_METRICS_ENABLED"`
	Address string `json:"address" yaml:"address" env:"ROSTERKIT_METRICS_ADDR"`
	Path    string `json:"path" yaml:"path" env:"ROSTERKIT_METRICS_PATH"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" yaml:"enable_rate_limit" env:"ROSTERKIT_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" yaml:"api_keys,omitempty" env:"ROSTERKIT_SECURITY_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" env:"ROSTERKIT_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int `json:"burst_size" yaml:"burst_size" env:"ROSTERKIT_SECURITY_RATE_LIMIT_BURST"`
}

// WebhookConfig holds outbound event delivery configuration
type WebhookConfig struct {
	Endpoints []string      `json:"endpoints,omitempty" yaml:"endpoints,omitempty" env:"ROSTERKIT_WEBHOOK_ENDPOINTS"`
	Events    []string      `json:"events,omitempty" yaml:"events,omitempty" env:"ROSTERKIT_WEBHOOK_EVENTS"`
	Secret    string        `json:"secret,omitempty" yaml:"secret,omitempty" env:"ROSTERKIT_WEBHOOK_SECRET"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" env:"ROSTERKIT_WEBHOOK_TIMEOUT"`
}

// RedisAdapter converts the section into the adapter's configuration.
func (s StorageConfig) RedisAdapter() redis.Config {
	r := s.Redis
	return redis.Config{
		Addr:         r.Addr,
		Password:     r.Password,
		DB:           r.DB,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
		DialTimeout:  r.DialTimeout,
		ReadTimeout:  r.ReadTimeout,
		WriteTimeout: r.WriteTimeout,
		Prefix:       r.Prefix,
	}
}

// SQLAdapter converts the section into the adapter's configuration.
func (s StorageConfig) SQLAdapter() sqlx.Config {
	q := s.SQL
	return sqlx.Config{
		Driver:          sqlx.Driver(q.Driver),
		DSN:             q.DSN,
		Table:           q.Table,
		MaxOpenConns:    q.MaxOpenConns,
		MaxIdleConns:    q.MaxIdleConns,
		ConnMaxLifetime: q.ConnMaxLifetime,
		AutoMigrate:     q.AutoMigrate,
	}
}

// S3Adapter converts the section into the adapter's configuration.
func (s StorageConfig) S3Adapter() s3.Config {
	o := s.S3
	return s3.Config{
		Region:          o.Region,
		Bucket:          o.Bucket,
		Key:             o.Key,
		Endpoint:        o.Endpoint,
		AccessKeyID:     o.AccessKeyID,
		SecretAccessKey: o.SecretAccessKey,
		PathStyle:       o.PathStyle,
	}
}

// EventTypes returns the webhook event filter as typed values.
func (w WebhookConfig) EventTypes() []core.EventType {
	out := make([]core.EventType, 0, len(w.Events))
	for _, e := range w.Events {
		out = append(out, core.EventType(e))
	}
	return out
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".json", ".yaml", ".yml":
	default:
		return errors.New("config file must have .json, .yaml or .yml extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
// Environment variables override file values.
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	rd := redis.DefaultConfig()
	sq := sqlx.DefaultConfig(sqlx.DriverSQLite)
	ob := s3.DefaultConfig()
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			EnableWebSocket:   true,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			File: FileConfig{
				Path: "./data/students.txt",
			},
			Redis: RedisConfig{
				Addr:         rd.Addr,
				PoolSize:     rd.PoolSize,
				MinIdleConns: rd.MinIdleConns,
				DialTimeout:  rd.DialTimeout,
				ReadTimeout:  rd.ReadTimeout,
				WriteTimeout: rd.WriteTimeout,
				Prefix:       rd.Prefix,
			},
			SQL: SQLConfig{
				Driver:          string(sq.Driver),
				DSN:             "file:./data/roster.db",
				Table:           sq.Table,
				MaxOpenConns:    sq.MaxOpenConns,
				MaxIdleConns:    sq.MaxIdleConns,
				ConnMaxLifetime: sq.ConnMaxLifetime,
				AutoMigrate:     true,
			},
			S3: S3Config{
				Region: ob.Region,
				Key:    ob.Key,
			},
		},
		Roster: RosterConfig{
			Dispatch:       "async",
			LoadOnStart:    true,
			SaveOnShutdown: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
			},
			APIKeys: []string{},
		},
		Webhooks: WebhookConfig{
			Timeout: 2 * time.Second,
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", &c.Server},
		{"storage", &c.Storage},
		{"roster", &c.Roster},
		{"logging", &c.Logging},
		{"metrics", &c.Metrics},
		{"security", c.Security},
		{"webhooks", &c.Webhooks},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s config: %v", s.name, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	const redacted = "[REDACTED]"
	if cfg.Storage.SQL.DSN != "" {
		cfg.Storage.SQL.DSN = redacted
	}
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = redacted
	}
	if cfg.Storage.S3.SecretAccessKey != "" {
		cfg.Storage.S3.SecretAccessKey = redacted
	}
	if cfg.Webhooks.Secret != "" {
		cfg.Webhooks.Secret = redacted
	}
	if len(cfg.Security.APIKeys) > 0 {
		keys := make([]string, len(cfg.Security.APIKeys))
		for i := range keys {
			keys[i] = redacted
		}
		cfg.Security.APIKeys = keys
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
