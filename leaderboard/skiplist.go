package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"rosterkit/core"
)

// A skip list ordered by (score desc, id asc, key asc) for O(log n) updates.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    Entry
	next [maxLevel]*node
}

type SkipList struct {
	mu    sync.RWMutex
	head  *node
	lvl   int
	size  int
	byKey map[Key]*node
	rng   *rand.Rand
}

func NewSkipList() *SkipList {
	// Use crypto/rand to generate a secure seed for PCG
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// Fallback to zero seed if crypto/rand fails (extremely unlikely)
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head:  &node{},
		lvl:   1,
		byKey: map[Key]*node{},
		rng:   rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score // higher score first
	}
	if a.RecordID != b.RecordID {
		return a.RecordID < b.RecordID
	}
	return a.Key < b.Key
}

// Update inserts the entry or moves it to its new position.
func (s *SkipList) Update(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byKey[e.Key]; ok {
		s.removeLocked(old.e)
	}
	e.Rank = 0
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{e: e}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byKey[e.Key] = n
	s.size++
}

func (s *SkipList) removeLocked(e Entry) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.e.Key != e.Key {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(s.byKey, e.Key)
	s.size--
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

func (s *SkipList) Remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.byKey[key]; ok {
		s.removeLocked(n.e)
	}
}

func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, min(n, s.size))
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		e := cur.e
		e.Rank = len(out) + 1
		out = append(out, e)
		cur = cur.next[0]
	}
	return out
}

// Get returns the entry stored under key with its 1-based rank.
func (s *SkipList) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return s.rankedLocked(func(e Entry) bool { return e.Key == n.e.Key })
}

// Rank returns the best-placed entry for a record id with its 1-based rank.
func (s *SkipList) Rank(id core.RecordID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankedLocked(func(e Entry) bool { return e.RecordID == id })
}

func (s *SkipList) rankedLocked(match func(Entry) bool) (Entry, bool) {
	rank := 0
	for cur := s.head.next[0]; cur != nil; cur = cur.next[0] {
		rank++
		if match(cur.e) {
			e := cur.e
			e.Rank = rank
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of ranked entries.
func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

var _ Board = (*SkipList)(nil)
