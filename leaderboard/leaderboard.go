// Package leaderboard ranks roster records by score.
package leaderboard

import "rosterkit/core"

// Key identifies one ranked entry. Record ids may repeat inside a roster, so
// entries are keyed by their position in the snapshot they were built from.
type Key uint64

// Entry is one ranked record.
type Entry struct {
	Key      Key           `json:"-"`
	Rank     int           `json:"rank"`
	RecordID core.RecordID `json:"id"`
	Name     string        `json:"name"`
	Score    float64       `json:"score"`
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(e Entry)
	Remove(key Key)
	TopN(n int) []Entry
	Get(key Key) (Entry, bool)
	Rank(id core.RecordID) (Entry, bool)
	Len() int
}

// Build ranks a snapshot of records.
func Build(records []core.Record) *SkipList {
	s := NewSkipList()
	for i, r := range records {
		s.Update(Entry{Key: Key(i), RecordID: r.ID(), Name: r.Name(), Score: r.Score()})
	}
	return s
}
