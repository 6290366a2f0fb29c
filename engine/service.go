package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"rosterkit/analytics"
	"rosterkit/core"
	"rosterkit/leaderboard"
	"rosterkit/roster"
)

// ErrDuplicateID is returned by Add and Seed when the service rejects
// duplicate record ids.
var ErrDuplicateID = errors.New("duplicate record id")

// SearchMode selects the lookup strategy used by Find.
type SearchMode string

const (
	SearchLinear SearchMode = "linear"
	// SearchBinary sorts the roster by id before searching and keeps that order.
	SearchBinary SearchMode = "binary"
	// SearchIndex looks the id up in a map and leaves the order alone.
	SearchIndex SearchMode = "index"
)

// ParseSearchMode maps a query value onto a SearchMode. Empty means linear.
func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SearchLinear, nil
	case SearchLinear, SearchBinary, SearchIndex:
		return m, nil
	}
	return "", errSearchMode(s)
}

func errSearchMode(s string) error {
	return &core.ValidationError{Field: "search", Value: s, Reason: "must be linear, binary or index"}
}

// SortKey names a roster ordering.
type SortKey string

const (
	SortByName  SortKey = "name"
	SortByScore SortKey = "score"
	SortByID    SortKey = "id"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByName, SortByScore, SortByID:
		return k, nil
	}
	return "", &core.ValidationError{Field: "sort", Value: s, Reason: "must be name, score or id"}
}

// Option configures a RosterService.
type Option func(*RosterService)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *RosterService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRejectDuplicates makes Add and Seed refuse ids already in the roster.
func WithRejectDuplicates(reject bool) Option {
	return func(s *RosterService) { s.rejectDuplicates = reject }
}

// RosterService wires a roster, its storage and the event bus into a
// concurrency-safe API. Events are published after the lock is released.
type RosterService struct {
	mu               sync.Mutex
	roster           *roster.Roster
	storage          Storage
	bus              *EventBus
	log              *slog.Logger
	rejectDuplicates bool
	ranking          *leaderboard.SkipList
}

func NewRosterService(storage Storage, bus *EventBus, opts ...Option) *RosterService {
	if storage == nil || bus == nil {
		panic("NewRosterService requires non-nil storage and bus")
	}
	s := &RosterService{roster: roster.New(), storage: storage, bus: bus, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe convenience method.
func (s *RosterService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *RosterService) SubscribeAll(handler func(context.Context, core.Event)) func() {
	return s.bus.SubscribeAll(handler)
}

func (s *RosterService) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

// Add validates and appends a record.
func (s *RosterService) Add(ctx context.Context, id core.RecordID, name string, score float64) (core.Record, error) {
	rec, err := core.NewRecord(id, name, score)
	if err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	ev, err := s.addLocked(rec)
	s.mu.Unlock()
	if err != nil {
		return core.Record{}, err
	}
	s.bus.Publish(ctx, ev)
	return rec, nil
}

// Seed appends already validated records, publishing one record_added per
// record. With duplicates rejected it stops at the first clash; records
// added before it stay.
func (s *RosterService) Seed(ctx context.Context, records []core.Record) error {
	var events []core.Event
	var err error
	s.mu.Lock()
	for _, rec := range records {
		var ev core.Event
		if ev, err = s.addLocked(rec); err != nil {
			break
		}
		events = append(events, ev)
	}
	s.mu.Unlock()
	for _, ev := range events {
		s.bus.Publish(ctx, ev)
	}
	return err
}

func (s *RosterService) addLocked(rec core.Record) (core.Event, error) {
	if rec.IsZero() {
		return core.Event{}, &core.ValidationError{Field: "id", Value: rec.ID(), Reason: "must be positive"}
	}
	if s.rejectDuplicates {
		if _, ok := s.roster.FindByID(rec.ID()); ok {
			return core.Event{}, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID())
		}
	}
	s.roster.Add(rec)
	s.ranking = nil
	return core.NewRecordAdded(rec, s.roster.Count()), nil
}

// Records returns a snapshot in current roster order.
func (s *RosterService) Records(_ context.Context) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.All()
}

func (s *RosterService) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Count()
}

// Find looks a record up by id. SearchBinary leaves the roster sorted by id
// and publishes a roster_sorted event.
func (s *RosterService) Find(ctx context.Context, id core.RecordID, mode SearchMode) (core.Record, error) {
	s.mu.Lock()
	var (
		rec core.Record
		ok  bool
	)
	switch mode {
	case SearchBinary:
		rec, ok = s.roster.BinarySearchByID(id)
	case SearchIndex:
		rec, ok = s.roster.LookupByID(id)
	case SearchLinear, "":
		rec, ok = s.roster.FindByID(id)
	default:
		s.mu.Unlock()
		return core.Record{}, errSearchMode(string(mode))
	}
	count := s.roster.Count()
	s.mu.Unlock()
	if mode == SearchBinary {
		s.bus.Publish(ctx, core.NewRosterSorted(string(SortByID), count))
	}
	if !ok {
		return core.Record{}, fmt.Errorf("record %d: %w", id, core.ErrNotFound)
	}
	return rec, nil
}

// UpdateScore sets the score of the first record with id.
func (s *RosterService) UpdateScore(ctx context.Context, id core.RecordID, score float64) (core.Record, error) {
	return s.update(ctx, id, "score", func() (bool, error) { return s.roster.UpdateScore(id, score) })
}

// Rename sets the name of the first record with id.
func (s *RosterService) Rename(ctx context.Context, id core.RecordID, name string) (core.Record, error) {
	return s.update(ctx, id, "name", func() (bool, error) { return s.roster.Rename(id, name) })
}

func (s *RosterService) update(ctx context.Context, id core.RecordID, field string, apply func() (bool, error)) (core.Record, error) {
	s.mu.Lock()
	found, err := apply()
	if err != nil || !found {
		s.mu.Unlock()
		if err != nil {
			return core.Record{}, err
		}
		return core.Record{}, fmt.Errorf("record %d: %w", id, core.ErrNotFound)
	}
	rec, _ := s.roster.FindByID(id)
	count := s.roster.Count()
	s.ranking = nil
	s.mu.Unlock()
	s.bus.Publish(ctx, core.NewRecordUpdated(rec, count, field))
	return rec, nil
}

// Remove deletes the first record with id and returns it.
func (s *RosterService) Remove(ctx context.Context, id core.RecordID) (core.Record, error) {
	s.mu.Lock()
	rec, ok := s.roster.Remove(id)
	count := s.roster.Count()
	if ok {
		s.ranking = nil
	}
	s.mu.Unlock()
	if !ok {
		return core.Record{}, fmt.Errorf("record %d: %w", id, core.ErrNotFound)
	}
	s.bus.Publish(ctx, core.NewRecordRemoved(rec, count))
	return rec, nil
}

// Sort reorders the roster in place.
func (s *RosterService) Sort(ctx context.Context, key SortKey) error {
	s.mu.Lock()
	switch key {
	case SortByName:
		s.roster.SortByName()
	case SortByScore:
		s.roster.SortByScore()
	case SortByID:
		s.roster.SortByID()
	default:
		s.mu.Unlock()
		return &core.ValidationError{Field: "sort", Value: string(key), Reason: "must be name, score or id"}
	}
	count := s.roster.Count()
	s.mu.Unlock()
	s.bus.Publish(ctx, core.NewRosterSorted(string(key), count))
	return nil
}

func (s *RosterService) Summary(_ context.Context) roster.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Summary()
}

// AverageScore is the roster mean, 0 when empty.
func (s *RosterService) AverageScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.AverageScore()
}

func (s *RosterService) Report(_ context.Context) analytics.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analytics.BuildReport(s.roster.All())
}

// Ranking returns the n best-scored records with their ranks.
func (s *RosterService) Ranking(_ context.Context, n int) []leaderboard.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board().TopN(n)
}

// RankOf returns the rank of the best-placed record with id.
func (s *RosterService) RankOf(_ context.Context, id core.RecordID) (leaderboard.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.board().Rank(id)
	if !ok {
		return leaderboard.Entry{}, fmt.Errorf("record %d: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *RosterService) board() *leaderboard.SkipList {
	if s.ranking == nil {
		s.ranking = leaderboard.Build(s.roster.All())
	}
	return s.ranking
}

// Save writes the current snapshot to storage.
func (s *RosterService) Save(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.roster.All()
	s.mu.Unlock()
	target := describe(s.storage)
	if err := s.storage.Save(ctx, snapshot); err != nil {
		s.log.Error("roster save failed", "target", target, "error", err)
		return fmt.Errorf("save roster: %w", err)
	}
	s.log.Info("roster saved", "target", target, "records", len(snapshot))
	s.bus.Publish(ctx, core.NewRosterSaved(len(snapshot), target))
	return nil
}

// Load replaces the roster with the stored snapshot. Nothing stored yields
// (roster.NotFound, nil) and leaves the roster untouched, as does any error.
func (s *RosterService) Load(ctx context.Context) (roster.LoadStatus, error) {
	source := describe(s.storage)
	records, err := s.storage.Load(ctx)
	if errors.Is(err, core.ErrNotFound) {
		s.log.Info("no saved roster", "source", source)
		return roster.NotFound, nil
	}
	if err != nil {
		s.log.Error("roster load failed", "source", source, "error", err)
		return roster.Failed, fmt.Errorf("load roster: %w", err)
	}
	if dups := duplicateIDs(records); len(dups) > 0 {
		s.log.Warn("loaded roster has duplicate ids", "source", source, "ids", dups)
	}
	s.mu.Lock()
	s.roster.Replace(records)
	s.ranking = nil
	count := s.roster.Count()
	s.mu.Unlock()
	s.log.Info("roster loaded", "source", source, "records", count)
	s.bus.Publish(ctx, core.NewRosterLoaded(count, source))
	return roster.Loaded, nil
}

func (s *RosterService) Close() { s.bus.Close() }

func describe(st Storage) string {
	if d, ok := st.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", st)
}

func duplicateIDs(records []core.Record) []core.RecordID {
	seen := make(map[core.RecordID]int, len(records))
	var out []core.RecordID
	for _, r := range records {
		seen[r.ID()]++
		if seen[r.ID()] == 2 {
			out = append(out, r.ID())
		}
	}
	return out
}
