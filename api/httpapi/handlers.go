package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"rosterkit/analytics"
	"rosterkit/core"
	"rosterkit/engine"
	"rosterkit/leaderboard"
)

const (
	defaultRankingSize = 10
	maxRankingSize     = 1000
	maxBodyBytes       = 1 << 16
)

type handlers struct {
	svc      *engine.RosterService
	activity *analytics.Activity
}

type recordsResponse struct {
	Count   int           `json:"count"`
	Records []core.Record `json:"records"`
}

type addRequest struct {
	ID    core.RecordID `json:"id"`
	Name  string        `json:"name"`
	Score *float64      `json:"score"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type scoreRequest struct {
	Score *float64 `json:"score"`
}

func (h *handlers) listRecords(w http.ResponseWriter, r *http.Request) {
	records := h.svc.Records(r.Context())
	writeJSON(w, recordsResponse{Count: len(records), Records: records})
}

func (h *handlers) addRecord(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodeBody(w, r, &req) {
		return
	}
	score := core.MinScore
	if req.Score != nil {
		score = *req.Score
	}
	rec, err := h.svc.Add(r.Context(), req.ID, req.Name, score)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, rec)
}

func (h *handlers) getRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	mode, err := engine.ParseSearchMode(r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rec, err := h.svc.Find(r.Context(), id, mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (h *handlers) getRank(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.svc.RankOf(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, e)
}

// updateScore takes the score from ?value= or, failing that, a {"score"} body.
func (h *handlers) updateScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var score float64
	if raw := r.URL.Query().Get("value"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "value must be a number", map[string]any{"field": "score"})
			return
		}
		score = v
	} else {
		var req scoreRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Score == nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "score is required", map[string]any{"field": "score"})
			return
		}
		score = *req.Score
	}
	rec, err := h.svc.UpdateScore(r.Context(), id, score)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (h *handlers) rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.svc.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (h *handlers) removeRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Remove(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (h *handlers) sort(w http.ResponseWriter, r *http.Request) {
	key, err := engine.ParseSortKey(r.URL.Query().Get("by"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.Sort(r.Context(), key); err != nil {
		writeServiceError(w, err)
		return
	}
	records := h.svc.Records(r.Context())
	writeJSON(w, map[string]any{"order": key, "count": len(records), "records": records})
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Summary(r.Context()))
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Report(r.Context()))
}

func (h *handlers) ranking(w http.ResponseWriter, r *http.Request) {
	n := defaultRankingSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", "n must be a positive integer", map[string]any{"field": "n"})
			return
		}
		n = min(v, maxRankingSize)
	}
	entries := h.svc.Ranking(r.Context(), n)
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, map[string]any{"entries": entries})
}

func (h *handlers) activityDay(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		writeError(w, http.StatusNotFound, "not_found", "activity tracking disabled", nil)
		return
	}
	day := r.URL.Query().Get("day")
	if day == "" {
		writeJSON(w, h.activity.Today())
		return
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "day must be YYYY-MM-DD", map[string]any{"field": "day"})
		return
	}
	writeJSON(w, h.activity.Day(day))
}

func (h *handlers) save(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Save(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "count": h.svc.Count(r.Context())})
}

func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"status": status.String(), "count": h.svc.Count(r.Context())})
}

// health reports liveness plus the roster size.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "healthy",
		"records": h.svc.Count(r.Context()),
		"checks":  map[string]any{"roster": "ok"},
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (core.RecordID, bool) {
	raw := r.PathValue("id")
	n, err := strconv.Atoi(raw)
	if err == nil {
		err = core.ValidateID(core.RecordID(n))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "id must be a positive integer", map[string]any{"field": "id"})
		return 0, false
	}
	return core.RecordID(n), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
		return false
	}
	return true
}
