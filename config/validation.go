package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"rosterkit/adapters/sqlx"
	"rosterkit/core"
)

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}

	if s.PathPrefix != "" && !strings.HasPrefix(s.PathPrefix, "/") {
		errs = append(errs, "path_prefix must start with /")
	}

	if s.ReadTimeout <= 0 {
		errs = append(errs, "read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		errs = append(errs, "write_timeout must be positive")
	}

	if s.IdleTimeout <= 0 {
		errs = append(errs, "idle_timeout must be positive")
	}

	if s.ReadHeaderTimeout <= 0 {
		errs = append(errs, "read_header_timeout must be positive")
	}

	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// StorageAdapters lists the accepted storage.adapter values.
var StorageAdapters = []string{"memory", "file", "redis", "sql", "s3"}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string

	if !slices.Contains(StorageAdapters, s.Adapter) {
		errs = append(errs, fmt.Sprintf("adapter must be one of: %s", strings.Join(StorageAdapters, ", ")))
	}

	// Only the selected adapter's section is checked
	var sub interface{ Validate() error }
	switch s.Adapter {
	case "file":
		sub = &s.File
	case "redis":
		sub = &s.Redis
	case "sql":
		sub = &s.SQL
	case "s3":
		sub = &s.S3
	}
	if sub != nil {
		if err := sub.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s config: %v", s.Adapter, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates redis storage configuration
func (r *RedisConfig) Validate() error {
	var errs []string
	if r.Addr == "" {
		errs = append(errs, "addr cannot be empty")
	}
	if r.DB < 0 {
		errs = append(errs, "db must be >= 0")
	}
	if r.Prefix == "" {
		errs = append(errs, "prefix cannot be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates sql storage configuration
func (q *SQLConfig) Validate() error {
	var errs []string
	switch sqlx.Driver(q.Driver) {
	case sqlx.DriverPostgres, sqlx.DriverPgx, sqlx.DriverMySQL, sqlx.DriverSQLite:
	default:
		errs = append(errs, "driver must be one of: postgres, pgx, mysql, sqlite")
	}
	if q.DSN == "" {
		errs = append(errs, "dsn cannot be empty")
	}
	if q.Table == "" {
		errs = append(errs, "table cannot be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates s3 storage configuration
func (o *S3Config) Validate() error {
	var errs []string
	if o.Bucket == "" {
		errs = append(errs, "bucket cannot be empty")
	}
	if o.Key == "" {
		errs = append(errs, "key cannot be empty")
	}
	if o.Region == "" {
		errs = append(errs, "region cannot be empty")
	}
	if (o.AccessKeyID == "") != (o.SecretAccessKey == "") {
		errs = append(errs, "access_key_id and secret_access_key must be set together")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates roster configuration
func (r *RosterConfig) Validate() error {
	switch r.Dispatch {
	case "sync", "async":
		return nil
	default:
		return errors.New("dispatch must be one of: sync, async")
	}
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, l.Level) {
		errs = append(errs, fmt.Sprintf("level must be one of: %s", strings.Join(validLevels, ", ")))
	}

	validFormats := []string{"json", "text"}
	if !slices.Contains(validFormats, l.Format) {
		errs = append(errs, fmt.Sprintf("format must be one of: %s", strings.Join(validFormats, ", ")))
	}

	validOutputs := []string{"stdout", "stderr"}
	if !slices.Contains(validOutputs, l.Output) {
		errs = append(errs, fmt.Sprintf("output must be one of: %s", strings.Join(validOutputs, ", ")))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		return errors.New("path must start with / when metrics are enabled")
	}
	return nil
}

// Validate validates security settings.
func (s SecurityConfig) Validate() error {
	var errs []string
	if s.EnableRateLimit {
		if s.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.BurstSize <= 0 {
			errs = append(errs, "rate_limit.burst_size must be > 0 when rate limiting is enabled")
		}
	}
	for i, key := range s.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("api_keys[%d] is empty", i))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates webhook configuration
func (w *WebhookConfig) Validate() error {
	var errs []string
	for i, ep := range w.Endpoints {
		u, err := url.Parse(ep)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("endpoints[%d] must be an http(s) URL", i))
		}
	}
	for i, e := range w.Events {
		if !slices.Contains(core.AllEventTypes, core.EventType(e)) {
			errs = append(errs, fmt.Sprintf("events[%d] %q is not a known event type", i, e))
		}
	}
	if len(w.Endpoints) > 0 && w.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
