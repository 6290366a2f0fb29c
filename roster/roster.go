// Package roster holds the ordered, in-memory collection of student records
// together with its search, sort and summary routines.
//
// A Roster is not safe for concurrent use; engine.RosterService serializes
// access when one is shared.
package roster

import (
	"rosterkit/core"
)

// Roster is an ordered sequence of records. Insertion order is kept until a
// sort rewrites it. Duplicate ids are permitted.
type Roster struct {
	records []*core.Record
	index   idIndex
}

// Summary is the class overview: count, mean score and the extremes.
// Top and Lowest are nil for an empty roster.
type Summary struct {
	Count   int          `json:"count"`
	Average float64      `json:"average"`
	Top     *core.Record `json:"top,omitempty"`
	Lowest  *core.Record `json:"lowest,omitempty"`
}

func New() *Roster { return &Roster{} }

// FromRecords builds a roster holding copies of records in the given order.
func FromRecords(records []core.Record) *Roster {
	r := New()
	r.Replace(records)
	return r
}

// Add appends a copy of rec to the end of the sequence.
func (r *Roster) Add(rec core.Record) {
	p := &rec
	r.records = append(r.records, p)
	r.index.reset()
}

// All returns a snapshot of the records in current order.
func (r *Roster) All() []core.Record {
	out := make([]core.Record, len(r.records))
	for i, p := range r.records {
		out[i] = *p
	}
	return out
}

// Count returns the number of records.
func (r *Roster) Count() int { return len(r.records) }

// Replace discards the current sequence and installs copies of records.
func (r *Roster) Replace(records []core.Record) {
	r.records = make([]*core.Record, 0, len(records))
	for _, rec := range records {
		r.records = append(r.records, &rec)
	}
	r.index.reset()
}

// FindByID returns the first record in current order with the given id.
func (r *Roster) FindByID(id core.RecordID) (core.Record, bool) {
	if i := r.position(id); i >= 0 {
		return *r.records[i], true
	}
	return core.Record{}, false
}

// BinarySearchByID sorts the roster ascending by id and then binary-searches
// it. The reorder is kept. With duplicate ids the one that came first before
// the sort wins.
func (r *Roster) BinarySearchByID(id core.RecordID) (core.Record, bool) {
	r.SortByID()
	low, high := 0, len(r.records)
	for low < high {
		mid := low + (high-low)/2
		if r.records[mid].ID() < id {
			low = mid + 1
		} else {
			high = mid
		}
	}
	if low < len(r.records) && r.records[low].ID() == id {
		return *r.records[low], true
	}
	return core.Record{}, false
}

// LookupByID returns the same record as FindByID through a map built on
// demand, without reordering the roster.
func (r *Roster) LookupByID(id core.RecordID) (core.Record, bool) {
	if p := r.index.lookup(r.records, id); p != nil {
		return *p, true
	}
	return core.Record{}, false
}

// UpdateScore sets the score of the first record with the given id. It
// reports whether a record matched; a validation failure leaves it unchanged.
func (r *Roster) UpdateScore(id core.RecordID, score float64) (bool, error) {
	i := r.position(id)
	if i < 0 {
		return false, nil
	}
	return true, r.records[i].SetScore(score)
}

// Rename sets the name of the first record with the given id.
func (r *Roster) Rename(id core.RecordID, name string) (bool, error) {
	i := r.position(id)
	if i < 0 {
		return false, nil
	}
	return true, r.records[i].SetName(name)
}

// Remove deletes the first record with the given id and returns it.
func (r *Roster) Remove(id core.RecordID) (core.Record, bool) {
	i := r.position(id)
	if i < 0 {
		return core.Record{}, false
	}
	p := r.records[i]
	copy(r.records[i:], r.records[i+1:])
	r.records[len(r.records)-1] = nil
	r.records = r.records[:len(r.records)-1]
	r.index.reset()
	return *p, true
}

// AverageScore is the arithmetic mean of all scores, 0 for an empty roster.
func (r *Roster) AverageScore() float64 {
	if len(r.records) == 0 {
		return 0
	}
	var sum float64
	for _, p := range r.records {
		sum += p.Score()
	}
	return sum / float64(len(r.records))
}

// TopPerformer returns the record with the highest score; among ties the
// first in current order wins.
func (r *Roster) TopPerformer() (core.Record, bool) {
	return r.extreme(func(candidate, best float64) bool { return candidate > best })
}

// LowestPerformer returns the record with the lowest score; among ties the
// first in current order wins.
func (r *Roster) LowestPerformer() (core.Record, bool) {
	return r.extreme(func(candidate, best float64) bool { return candidate < best })
}

// Summary collects count, average and extremes.
func (r *Roster) Summary() Summary {
	s := Summary{Count: r.Count(), Average: r.AverageScore()}
	if top, ok := r.TopPerformer(); ok {
		s.Top = &top
	}
	if low, ok := r.LowestPerformer(); ok {
		s.Lowest = &low
	}
	return s
}

func (r *Roster) extreme(better func(candidate, best float64) bool) (core.Record, bool) {
	if len(r.records) == 0 {
		return core.Record{}, false
	}
	best := r.records[0]
	for _, p := range r.records[1:] {
		if better(p.Score(), best.Score()) {
			best = p
		}
	}
	return *best, true
}

func (r *Roster) position(id core.RecordID) int {
	for i, p := range r.records {
		if p.ID() == id {
			return i
		}
	}
	return -1
}
