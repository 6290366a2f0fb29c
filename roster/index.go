package roster

import "rosterkit/core"

// idIndex maps ids to the first record carrying them in current order. It is
// built on first use and dropped whenever the sequence changes shape.
type idIndex struct {
	byID map[core.RecordID]*core.Record
}

func (x *idIndex) reset() { x.byID = nil }

func (x *idIndex) lookup(records []*core.Record, id core.RecordID) *core.Record {
	if x.byID == nil {
		x.byID = make(map[core.RecordID]*core.Record, len(records))
		for _, p := range records {
			if _, seen := x.byID[p.ID()]; !seen {
				x.byID[p.ID()] = p
			}
		}
	}
	return x.byID[id]
}
