package memory

import (
	"context"
	"errors"
	"rosterkit/core"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	s := New()
	if _, err := s.Load(context.Background()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}
	a, _ := core.NewRecord(1, "Ada", 4.1)
	b, _ := core.NewRecord(2, "Bo", 3.2)
	in := []core.Record{a, b}
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	in[0] = b
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected snapshot: %v", got)
	}
	got[1] = a
	again, _ := s.Load(context.Background())
	if again[1] != b {
		t.Fatal("load must return a copy")
	}
	if s.Updated().IsZero() {
		t.Fatal("updated time not set")
	}
}

func TestMemoryStoreEmptySnapshot(t *testing.T) {
	s := New()
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v %v", got, err)
	}
}
