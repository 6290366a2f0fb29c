package engine

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rosterkit/core"
)

func sampleEvent() core.Event {
	r, _ := core.NewRecord(1, "u", 1)
	return core.NewRecordAdded(r, 1)
}

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventRecordAdded, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), sampleEvent())
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventRecordAdded, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), sampleEvent())
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusUnsubscribeAndSubscribeAll(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	var n int32
	cancel := bus.SubscribeAll(func(ctx context.Context, e core.Event) { atomic.AddInt32(&n, 1) })
	bus.Publish(context.Background(), sampleEvent())
	bus.Publish(context.Background(), core.NewRosterSorted("id", 1))
	cancel()
	bus.Publish(context.Background(), sampleEvent())
	if got := atomic.LoadInt32(&n); got != 2 {
		t.Fatalf("want 2 got %d", got)
	}
}

func TestEventBusCloseWaitsForWorkers(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	started := make(chan struct{})
	var finished int32
	bus.Subscribe(core.EventRecordAdded, func(ctx context.Context, e core.Event) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	bus.Publish(context.Background(), sampleEvent())
	<-started
	bus.Close()
	if atomic.LoadInt32(&finished) != 1 {
		t.Fatal("close returned before the running handler finished")
	}
}

func TestEventBusLogsDroppedEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	bus := NewEventBus(DispatchAsync, WithQueueSize(1), WithWorkers(1), WithBusLogger(logger))
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.Subscribe(core.EventRecordAdded, func(ctx context.Context, e core.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})
	bus.Publish(context.Background(), sampleEvent())
	<-started
	// worker is blocked: one event fits the queue, the next two are dropped
	for i := 0; i < 3; i++ {
		bus.Publish(context.Background(), sampleEvent())
	}
	if got := bus.Dropped(); got != 2 {
		t.Fatalf("want 2 dropped got %d", got)
	}
	close(release)
	bus.Close()
	out := buf.String()
	if !strings.Contains(out, "event queue full") || !strings.Contains(out, "dropped_total=2") {
		t.Fatalf("missing drop log: %s", out)
	}
}
