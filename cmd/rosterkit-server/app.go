package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fileAdapter "rosterkit/adapters/file"
	mem "rosterkit/adapters/memory"
	redisAdapter "rosterkit/adapters/redis"
	s3Adapter "rosterkit/adapters/s3"
	sqlxAdapter "rosterkit/adapters/sqlx"
	"rosterkit/analytics"
	"rosterkit/api/httpapi"
	"rosterkit/config"
	"rosterkit/engine"
	"rosterkit/integrations/webhook"
	"rosterkit/kit"
	"rosterkit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Hub      *realtime.Hub
	Activity *analytics.Activity
	Metrics  *Metrics
	Service  *engine.RosterService
	Handler  http.Handler
	Server   *http.Server
}

// Metrics holds the Prometheus registry and its HTTP handler; both are nil when disabled.
type Metrics struct {
	Registry *prometheus.Registry
	Handler  http.Handler
}

// configPathEnv names a JSON or YAML config file to load before env overrides.
const configPathEnv = "ROSTERKIT_CONFIG"

func provideConfig(ctx context.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv(configPathEnv); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideActivity() *analytics.Activity {
	return analytics.NewActivity()
}

func provideMetrics(cfg *config.Config) *Metrics {
	if !cfg.Metrics.Enabled {
		return &Metrics{}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Metrics{
		Registry: reg,
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
}

func provideStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.Storage, func(), error) {
	store, err := setupStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("closing storage", "error", err)
			}
		}
	}
	return store, cleanup, nil
}

func provideService(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, activity *analytics.Activity, metrics *Metrics, storage engine.Storage) (*engine.RosterService, func(), error) {
	hooks := []analytics.Hook{activity}
	if len(cfg.Webhooks.Endpoints) > 0 {
		hooks = append(hooks, webhook.New(cfg.Webhooks.Endpoints,
			webhook.WithClient(&http.Client{Timeout: cfg.Webhooks.Timeout}),
			webhook.WithSecret(cfg.Webhooks.Secret),
			webhook.WithEventTypes(cfg.Webhooks.EventTypes()...),
			webhook.WithLogger(logger),
		))
	}

	// the average gauge reads the service, which does not exist yet
	var svc *engine.RosterService
	if metrics.Registry != nil {
		ph, err := analytics.NewPrometheusHook(metrics.Registry, func() float64 {
			if svc == nil {
				return 0
			}
			return svc.AverageScore()
		})
		if err != nil {
			return nil, nil, err
		}
		hooks = append(hooks, ph)
	}

	opts := []kit.Option{
		kit.WithStorage(storage),
		kit.WithDispatchMode(dispatchMode(cfg.Roster.Dispatch)),
		kit.WithHooks(hooks...),
		kit.WithLogger(logger),
		kit.WithRejectDuplicates(cfg.Roster.RejectDuplicates),
	}
	if cfg.Server.EnableWebSocket {
		opts = append(opts, kit.WithRealtime(hub))
	}
	built, err := kit.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	svc = built

	if err := primeRoster(ctx, cfg, svc, logger); err != nil {
		svc.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if cfg.Roster.SaveOnShutdown {
			if err := svc.Save(context.Background()); err != nil {
				logger.Error("saving roster on shutdown", "error", err)
			}
		}
		svc.Close()
	}
	return svc, cleanup, nil
}

// primeRoster loads the stored roster and falls back to the sample records
// when nothing was loaded and seeding is enabled.
func primeRoster(ctx context.Context, cfg *config.Config, svc *engine.RosterService, logger *slog.Logger) error {
	if cfg.Roster.LoadOnStart {
		if _, err := svc.Load(ctx); err != nil {
			return fmt.Errorf("loading roster: %w", err)
		}
	}
	if cfg.Roster.SeedSample && svc.Count(ctx) == 0 {
		if err := svc.Seed(ctx, kit.SampleRecords()); err != nil {
			return fmt.Errorf("seeding roster: %w", err)
		}
		logger.Info("seeded sample roster", "count", svc.Count(ctx))
	}
	return nil
}

func provideHandler(cfg *config.Config, logger *slog.Logger, svc *engine.RosterService, hub *realtime.Hub, activity *analytics.Activity, metrics *Metrics) http.Handler {
	opts := httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		Activity:         activity,
		Logger:           logger,
	}
	// a separate metrics listener is started by main
	if cfg.Metrics.Address == "" {
		opts.Metrics = metrics.Handler
	}
	if !cfg.Server.EnableWebSocket {
		hub = nil
	}
	return httpapi.NewMux(svc, hub, opts)
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func dispatchMode(s string) engine.DispatchMode {
	if s == "sync" {
		return engine.DispatchSync
	}
	return engine.DispatchAsync
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	result := make([]slog.Attr, 0, len(attrs))
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "file":
		return fileAdapter.New(cfg.Storage.File.Path)
	case "redis":
		return redisAdapter.New(cfg.Storage.RedisAdapter())
	case "sql":
		return sqlxAdapter.New(ctx, cfg.Storage.SQLAdapter())
	case "s3":
		return s3Adapter.New(ctx, cfg.Storage.S3Adapter())
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
