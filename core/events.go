package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventRecordAdded   EventType = "record_added"
	EventRecordUpdated EventType = "record_updated"
	EventRecordRemoved EventType = "record_removed"
	EventRosterSorted  EventType = "roster_sorted"
	EventRosterSaved   EventType = "roster_saved"
	EventRosterLoaded  EventType = "roster_loaded"
)

// AllEventTypes lists every event type in declaration order.
var AllEventTypes = []EventType{
	EventRecordAdded,
	EventRecordUpdated,
	EventRecordRemoved,
	EventRosterSorted,
	EventRosterSaved,
	EventRosterLoaded,
}

// Event represents an immutable domain event.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	RecordID RecordID       `json:"record_id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Score    float64        `json:"score,omitempty"`
	Count    int            `json:"count"`
	Order    string         `json:"order,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewRecordAdded(r Record, count int) Event {
	return Event{Type: EventRecordAdded, Time: time.Now().UTC(), RecordID: r.ID(), Name: r.Name(), Score: r.Score(), Count: count}
}

func NewRecordUpdated(r Record, count int, field string) Event {
	return Event{Type: EventRecordUpdated, Time: time.Now().UTC(), RecordID: r.ID(), Name: r.Name(), Score: r.Score(), Count: count,
		Metadata: map[string]any{"field": field}}
}

func NewRecordRemoved(r Record, count int) Event {
	return Event{Type: EventRecordRemoved, Time: time.Now().UTC(), RecordID: r.ID(), Name: r.Name(), Score: r.Score(), Count: count}
}

func NewRosterSorted(order string, count int) Event {
	return Event{Type: EventRosterSorted, Time: time.Now().UTC(), Order: order, Count: count}
}

func NewRosterSaved(count int, target string) Event {
	return Event{Type: EventRosterSaved, Time: time.Now().UTC(), Count: count, Metadata: map[string]any{"target": target}}
}

func NewRosterLoaded(count int, source string) Event {
	return Event{Type: EventRosterLoaded, Time: time.Now().UTC(), Count: count, Metadata: map[string]any{"source": source}}
}
