package analytics

import (
	"sync"
	"time"

	"rosterkit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// HookFunc adapts a plain function to Hook.
type HookFunc func(e core.Event)

func (f HookFunc) OnEvent(e core.Event) { f(e) }

// DayActivity summarizes the events seen on one UTC day.
type DayActivity struct {
	Day            string                 `json:"day"`
	Events         map[core.EventType]int `json:"events"`
	RecordsTouched int                    `json:"records_touched"`
}

// Activity tracks roster activity per UTC day.
type Activity struct {
	mu      sync.Mutex
	events  map[string]map[core.EventType]int
	touched map[string]map[core.RecordID]struct{}
}

func NewActivity() *Activity {
	return &Activity{
		events:  map[string]map[core.EventType]int{},
		touched: map[string]map[core.RecordID]struct{}{},
	}
}

func (a *Activity) OnEvent(e core.Event) {
	day := dayKey(e.Time)
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.events[day]
	if m == nil {
		m = map[core.EventType]int{}
		a.events[day] = m
	}
	m[e.Type]++
	if e.RecordID == 0 {
		return
	}
	ids := a.touched[day]
	if ids == nil {
		ids = map[core.RecordID]struct{}{}
		a.touched[day] = ids
	}
	ids[e.RecordID] = struct{}{}
}

// Day returns the activity for a day formatted as 2006-01-02.
func (a *Activity) Day(day string) DayActivity {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := DayActivity{Day: day, Events: map[core.EventType]int{}}
	for typ, n := range a.events[day] {
		out.Events[typ] = n
	}
	out.RecordsTouched = len(a.touched[day])
	return out
}

// Today is Day for the current UTC date.
func (a *Activity) Today() DayActivity { return a.Day(dayKey(time.Now())) }

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
