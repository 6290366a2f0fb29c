package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"rosterkit/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

type subscription struct {
	id  int64
	typ core.EventType
	fn  func(context.Context, core.Event)
}

// EventBus provides thread-safe pub/sub with sync and async dispatch.
type EventBus struct {
	mode         DispatchMode
	mu           sync.RWMutex
	subs         map[core.EventType]map[int64]subscription
	nextID       int64
	queueSize    int
	asyncQueue   chan core.Event
	asyncWorkers int
	dropped      atomic.Int64
	log          *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// BusOption configures an EventBus.
type BusOption func(*EventBus)

// WithBusLogger sets the logger used to report dropped events.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(e *EventBus) {
		if l != nil {
			e.log = l
		}
	}
}

// WithQueueSize bounds the async queue. Values below 1 are ignored.
func WithQueueSize(n int) BusOption {
	return func(e *EventBus) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithWorkers sets the number of async dispatch goroutines.
func WithWorkers(n int) BusOption {
	return func(e *EventBus) {
		if n > 0 {
			e.asyncWorkers = n
		}
	}
}

func NewEventBus(mode DispatchMode, opts ...BusOption) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		mode:         mode,
		subs:         make(map[core.EventType]map[int64]subscription),
		queueSize:    2048,
		asyncWorkers: 4,
		log:          slog.Default(),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, o := range opts {
		o(eb)
	}
	eb.asyncQueue = make(chan core.Event, eb.queueSize)
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

func (e *EventBus) startWorkers() {
	for i := 0; i < e.asyncWorkers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case ev := <-e.asyncQueue:
					e.dispatchSync(context.Background(), ev)
				case <-e.ctx.Done():
					return
				}
			}
		}()
	}
}

// Close stops async workers after they finish the event in hand.
// Events still queued are dropped.
func (e *EventBus) Close() {
	e.cancel()
	e.wg.Wait()
}

// SubscribeAll registers handler for every event type. Returns unsubscribe func.
func (e *EventBus) SubscribeAll(handler func(context.Context, core.Event)) func() {
	cancels := make([]func(), 0, len(core.AllEventTypes))
	for _, typ := range core.AllEventTypes {
		cancels = append(cancels, e.Subscribe(typ, handler))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Subscribe registers a handler for an event type. Returns unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]subscription)
	}
	e.subs[typ][id] = subscription{id: id, typ: typ, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// Publish sends an event to subscribers. In async mode a full queue drops
// the event and logs it; Publish never blocks the caller.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		select {
		case e.asyncQueue <- ev:
		default:
			n := e.dropped.Add(1)
			e.log.Warn("event queue full, dropping event",
				"type", ev.Type,
				"record_id", ev.RecordID,
				"queue_size", cap(e.asyncQueue),
				"dropped_total", n)
		}
		return
	}
	e.dispatchSync(ctx, ev)
}

// Dropped reports how many events a full async queue has discarded.
func (e *EventBus) Dropped() int64 { return e.dropped.Load() }

func (e *EventBus) dispatchSync(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	subs := e.subs[ev.Type]
	// handlers run without the lock held
	handlers := make([]func(context.Context, core.Event), 0, len(subs))
	for _, s := range subs {
		handlers = append(handlers, s.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
