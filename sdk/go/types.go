package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Record mirrors the JSON surface of a roster record.
type Record struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Summary describes GET /roster/summary.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Top     *Record `json:"top,omitempty"`
	Lowest  *Record `json:"lowest,omitempty"`
}

// Band counts the records in one CGPA class.
type Band struct {
	Band  string  `json:"band"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Count int     `json:"count"`
}

// Report describes GET /roster/report.
type Report struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Bands  []Band  `json:"bands"`
}

// RankEntry is one ranking position.
type RankEntry struct {
	Rank  int     `json:"rank"`
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Activity describes GET /roster/activity.
type Activity struct {
	Day            string         `json:"day"`
	Events         map[string]int `json:"events"`
	RecordsTouched int            `json:"records_touched"`
}

// LoadResult describes POST /roster/load.
type LoadResult struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status  string                 `json:"status"`
	Records int                    `json:"records"`
	Checks  map[string]interface{} `json:"checks"`
}

// SearchMode selects the server-side lookup strategy.
type SearchMode string

const (
	SearchLinear SearchMode = "linear"
	SearchBinary SearchMode = "binary" // also sorts the server roster by id
	SearchIndex  SearchMode = "index"
)

// SortKey selects the server-side ordering.
type SortKey string

const (
	SortByName  SortKey = "name"
	SortByScore SortKey = "score"
	SortByID    SortKey = "id"
)

// APIError is the decoded error body of a failed request.
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return fmt.Sprintf("request failed: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsConflict reports whether err is a 409 API error, such as a duplicate id.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsInvalid reports whether err is a 400 API error.
func IsInvalid(err error) bool { return hasStatus(err, http.StatusBadRequest) }

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrInvalidID is returned when a record id is not positive.
var ErrInvalidID = errors.New("record id must be positive")
