// Package kit assembles a ready to use RosterService from functional options.
package kit

import (
	"context"
	"log/slog"

	"rosterkit/adapters/memory"
	"rosterkit/analytics"
	"rosterkit/core"
	"rosterkit/engine"
	"rosterkit/realtime"
)

// Option configures the roster service builder.
type Option func(*config)

type config struct {
	storage          engine.Storage
	mode             engine.DispatchMode
	hub              *realtime.Hub
	hooks            []analytics.Hook
	logger           *slog.Logger
	rejectDuplicates bool
	seed             []core.Record
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHooks installs analytics hooks that see every event.
func WithHooks(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithRejectDuplicates refuses records whose id is already present.
func WithRejectDuplicates(reject bool) Option { return func(c *config) { c.rejectDuplicates = reject } }

// WithSeed pre-populates the roster. Seeding happens after hooks are wired,
// so they observe the seeded records.
func WithSeed(records ...core.Record) Option {
	return func(c *config) { c.seed = append(c.seed, records...) }
}

// New builds a configured RosterService. If not provided, defaults are used:
//   - storage: in-memory
//   - dispatch: async
//   - logger: slog.Default()
func New(opts ...Option) (*engine.RosterService, error) {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}
	bus := engine.NewEventBus(cfg.mode, engine.WithBusLogger(cfg.logger))
	svc := engine.NewRosterService(cfg.storage, bus,
		engine.WithLogger(cfg.logger),
		engine.WithRejectDuplicates(cfg.rejectDuplicates),
	)
	hooks := cfg.hooks
	if cfg.hub != nil {
		// Bridge all events to realtime
		hooks = append(hooks, cfg.hub)
	}
	if len(hooks) > 0 {
		bridge := analytics.NewBridge(hooks...)
		bus.SubscribeAll(func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
	}
	if len(cfg.seed) > 0 {
		if err := svc.Seed(context.Background(), cfg.seed); err != nil {
			svc.Close()
			return nil, err
		}
	}
	return svc, nil
}

// SampleRecords returns the three students the demo roster starts with.
func SampleRecords() []core.Record {
	out := make([]core.Record, 0, 3)
	for _, s := range []struct {
		id    core.RecordID
		name  string
		score float64
	}{
		{101, "Ella Cynthia", 4.50},
		{102, "Ikenna Divine", 4.80},
		{103, "Chris Chibuike", 4.30},
	} {
		r, err := core.NewRecord(s.id, s.name, s.score)
		if err != nil {
			panic(err)
		}
		out = append(out, r)
	}
	return out
}
