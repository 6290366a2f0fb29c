package config

import (
	"fmt"
	"time"
)

// LoadProfile returns the defaults for a named environment, with environment
// variable overrides applied.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch Environment(name) {
	case EnvDevelopment:
		cfg.Environment = EnvDevelopment
		cfg.Logging.Format = "text"
		cfg.Logging.Level = "debug"
		cfg.Roster.SeedSample = true
	case EnvTesting:
		cfg.Environment = EnvTesting
		cfg.Roster.Dispatch = "sync"
		cfg.Roster.LoadOnStart = false
		cfg.Roster.SaveOnShutdown = false
		cfg.Logging.Level = "warn"
	case EnvStaging:
		cfg.Environment = EnvStaging
		cfg.Storage.Adapter = "file"
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
	case EnvProduction:
		cfg.Environment = EnvProduction
		cfg.Storage.Adapter = "sql"
		cfg.Server.CORSOrigin = ""
		cfg.Server.ShutdownTimeout = 15 * time.Second
		cfg.Roster.RejectDuplicates = true
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
		cfg.Security.RateLimit.RequestsPerMinute = 600
		cfg.Security.RateLimit.BurstSize = 50
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
