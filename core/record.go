package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// RecordID identifies a student record. Positive by construction; uniqueness
// is a policy of the owning collection, not of the record.
type RecordID int

const (
	MinScore = 0.0
	MaxScore = 5.0
)

// Record is one student's identifier, name and score (CGPA).
// All fields satisfy their constraints for the lifetime of the value; a
// failed mutation leaves the record unchanged.
type Record struct {
	id    RecordID
	name  string
	score float64
}

// NewRecord validates and builds a record. The name is stored trimmed.
func NewRecord(id RecordID, name string, score float64) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	trimmed, err := normalizeName(name)
	if err != nil {
		return Record{}, err
	}
	if err := ValidateScore(score); err != nil {
		return Record{}, err
	}
	return Record{id: id, name: trimmed, score: score}, nil
}

// NewUnscoredRecord is NewRecord with a zero score.
func NewUnscoredRecord(id RecordID, name string) (Record, error) {
	return NewRecord(id, name, 0)
}

func (r Record) ID() RecordID   { return r.id }
func (r Record) Name() string   { return r.name }
func (r Record) Score() float64 { return r.score }

// IsZero reports whether r is the zero Record, which no constructor returns.
func (r Record) IsZero() bool { return r.id == 0 }

// SetName replaces the name after trimming it.
func (r *Record) SetName(name string) error {
	trimmed, err := normalizeName(name)
	if err != nil {
		return err
	}
	r.name = trimmed
	return nil
}

// SetScore replaces the score if it lies within [MinScore, MaxScore].
func (r *Record) SetScore(score float64) error {
	if err := ValidateScore(score); err != nil {
		return err
	}
	r.score = score
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("Record{id=%d, name='%s', score=%.2f}", r.id, r.name, r.score)
}

// ValidateID ensures the id is positive.
func ValidateID(id RecordID) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Value: id, Reason: "must be positive"}
	}
	return nil
}

// ValidateName ensures the name is not blank and holds no control
// characters such as tabs or line breaks.
func ValidateName(name string) error {
	_, err := normalizeName(name)
	return err
}

// ValidateScore ensures the score lies within [MinScore, MaxScore]. NaN is rejected.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return &ValidationError{Field: "score", Value: score, Reason: fmt.Sprintf("must be between %.1f and %.1f", MinScore, MaxScore)}
	}
	return nil
}

func normalizeName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", &ValidationError{Field: "name", Value: name, Reason: "required"}
	}
	if strings.ContainsFunc(s, unicode.IsControl) {
		return "", &ValidationError{Field: "name", Value: name, Reason: "must not contain control characters"}
	}
	return s, nil
}

type recordJSON struct {
	ID    RecordID `json:"id"`
	Name  string   `json:"name"`
	Score float64  `json:"score"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{ID: r.id, Name: r.name, Score: r.score})
}

// UnmarshalJSON decodes and validates a record; an invalid record is a decode error.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rec, err := NewRecord(raw.ID, raw.Name, raw.Score)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
