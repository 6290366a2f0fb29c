package leaderboard

import (
	"math"
	"rosterkit/core"
	"testing"
)

func entry(key Key, id core.RecordID, score float64) Entry {
	return Entry{Key: key, RecordID: id, Name: "n", Score: score}
}

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	s.Update(entry(1, 10, 3.0))
	s.Update(entry(2, 20, 4.5))
	s.Update(entry(3, 30, 4.0))
	top := s.TopN(3)
	if len(top) != 3 || top[0].RecordID != 20 || top[1].RecordID != 30 || top[2].RecordID != 10 {
		t.Fatalf("unexpected order: %#v", top)
	}
	if top[0].Rank != 1 || top[2].Rank != 3 {
		t.Fatalf("unexpected ranks: %#v", top)
	}
	s.Update(entry(1, 10, 5.0))
	top = s.TopN(1)
	if top[0].RecordID != 10 {
		t.Fatalf("top should be 10, got %#v", top)
	}
	if s.Len() != 3 {
		t.Fatalf("len should stay 3, got %d", s.Len())
	}
}

func TestSkipListTiesOrderedByIDThenKey(t *testing.T) {
	s := NewSkipList()
	s.Update(entry(5, 9, 4.0))
	s.Update(entry(4, 9, 4.0))
	s.Update(entry(3, 2, 4.0))
	top := s.TopN(10)
	if top[0].RecordID != 2 || top[1].Key != 4 || top[2].Key != 5 {
		t.Fatalf("unexpected tie order: %#v", top)
	}
}

func TestSkipListRemoveAndRank(t *testing.T) {
	s := NewSkipList()
	for i := 0; i < 50; i++ {
		s.Update(entry(Key(i), core.RecordID(i+1), float64(i%6)))
	}
	s.Remove(Key(10))
	s.Remove(Key(999))
	if s.Len() != 49 {
		t.Fatalf("expected 49 entries, got %d", s.Len())
	}
	if _, ok := s.Get(Key(10)); ok {
		t.Fatal("removed key still present")
	}
	e, ok := s.Rank(core.RecordID(6)) // key 5, score 5, lowest id among score 5
	if !ok || e.Rank != 1 {
		t.Fatalf("expected id 6 to rank first, got %#v ok=%v", e, ok)
	}
	g, ok := s.Get(Key(5))
	if !ok || g.Rank != 1 {
		t.Fatalf("get key 5: %#v", g)
	}
	if _, ok := s.Rank(core.RecordID(1000)); ok {
		t.Fatal("unexpected rank for unknown id")
	}
	if s.TopN(0) != nil {
		t.Fatal("TopN(0) should be nil")
	}
}

func TestTopNLargerThanList(t *testing.T) {
	s := NewSkipList()
	s.Update(entry(1, 10, 3.0))
	s.Update(entry(2, 20, 4.5))
	top := s.TopN(math.MaxInt)
	if len(top) != 2 || top[0].RecordID != 20 {
		t.Fatalf("unexpected top: %#v", top)
	}
	if cap(top) != 2 {
		t.Fatalf("capacity should follow list size, got %d", cap(top))
	}
	if got := NewSkipList().TopN(1 << 40); len(got) != 0 {
		t.Fatalf("empty list returned %#v", got)
	}
}

func TestBuild(t *testing.T) {
	a, _ := core.NewRecord(101, "Ella Cynthia", 4.5)
	b, _ := core.NewRecord(102, "Ikenna Divine", 4.8)
	c, _ := core.NewRecord(103, "Chris Chibuike", 4.3)
	s := Build([]core.Record{a, b, c})
	top := s.TopN(3)
	if top[0].Name != "Ikenna Divine" || top[2].Name != "Chris Chibuike" {
		t.Fatalf("unexpected ranking: %#v", top)
	}
}
