package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore resolves secrets by key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from the process environment.
// A KEY_FILE variable, when set, names a file holding the value.
type EnvironmentSecretStore struct{}

// NewEnvironmentSecretStore returns an environment backed SecretStore.
func NewEnvironmentSecretStore() *EnvironmentSecretStore { return &EnvironmentSecretStore{} }

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// Get returns the secret stored under key.
func (s *EnvironmentSecretStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}
	if path, ok := os.LookupEnv(key + "_FILE"); ok && path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator supplied path
		if err != nil {
			return "", fmt.Errorf("read secret file for %s: %w", key, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("secret %s not set", key)
}

// GetWithDefault returns the secret under key, or def when it is missing.
func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	v, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return v
}

// LoadSecretsFromEnv fills empty credentials from the environment secret store.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	return c.LoadSecrets(ctx, NewEnvironmentSecretStore())
}

// LoadSecrets fills empty credentials from store.
func (c *Config) LoadSecrets(ctx context.Context, store SecretStore) error {
	targets := []struct {
		key string
		dst *string
	}{
		{"ROSTERKIT_STORAGE_REDIS_PASSWORD", &c.Storage.Redis.Password},
		{"ROSTERKIT_STORAGE_SQL_DSN", &c.Storage.SQL.DSN},
		{"ROSTERKIT_STORAGE_S3_SECRET_ACCESS_KEY", &c.Storage.S3.SecretAccessKey},
		{"ROSTERKIT_WEBHOOK_SECRET", &c.Webhooks.Secret},
	}
	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		*t.dst = store.GetWithDefault(ctx, t.key, "")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Validate()
}
