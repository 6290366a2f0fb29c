package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	wsadapter "rosterkit/adapters/websocket"
	"rosterkit/analytics"
	"rosterkit/core"
	"rosterkit/engine"
	"rosterkit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// Metrics, if set, is served at {prefix}/metrics outside API key auth.
	Metrics http.Handler
	// Activity, if set, backs {prefix}/roster/activity.
	Activity *analytics.Activity
	// Logger receives one line per request. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewMux builds an http.Handler exposing the roster REST API and WebSocket stream.
// Routes:
//   - GET    {prefix}/records
//   - POST   {prefix}/records                 body {"id","name","score"}
//   - GET    {prefix}/records/{id}?search=linear|binary
//   - GET    {prefix}/records/{id}/rank
//   - PUT    {prefix}/records/{id}/score?value=4.2
//   - PUT    {prefix}/records/{id}/name       body {"name"}
//   - DELETE {prefix}/records/{id}
//   - POST   {prefix}/roster/sort?by=name|score|id
//   - GET    {prefix}/roster/summary
//   - GET    {prefix}/roster/report
//   - GET    {prefix}/roster/ranking?n=10
//   - GET    {prefix}/roster/activity?day=2006-01-02
//   - POST   {prefix}/roster/save
//   - POST   {prefix}/roster/load
//   - GET    {prefix}/healthz
//   - GET    {prefix}/metrics
//   - WS     {prefix}/ws?types=record_added,...
func NewMux(svc *engine.RosterService, hub *realtime.Hub, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{svc: svc, activity: opts.Activity}
	p := func(method, path string) string { return method + " " + withPrefix(opts.PathPrefix, path) }

	api := http.NewServeMux()
	api.HandleFunc(p(http.MethodGet, "/records"), h.listRecords)
	api.HandleFunc(p(http.MethodPost, "/records"), h.addRecord)
	api.HandleFunc(p(http.MethodGet, "/records/{id}"), h.getRecord)
	api.HandleFunc(p(http.MethodGet, "/records/{id}/rank"), h.getRank)
	api.HandleFunc(p(http.MethodPut, "/records/{id}/score"), h.updateScore)
	api.HandleFunc(p(http.MethodPut, "/records/{id}/name"), h.rename)
	api.HandleFunc(p(http.MethodDelete, "/records/{id}"), h.removeRecord)
	api.HandleFunc(p(http.MethodPost, "/roster/sort"), h.sort)
	api.HandleFunc(p(http.MethodGet, "/roster/summary"), h.summary)
	api.HandleFunc(p(http.MethodGet, "/roster/report"), h.report)
	api.HandleFunc(p(http.MethodGet, "/roster/ranking"), h.ranking)
	api.HandleFunc(p(http.MethodGet, "/roster/activity"), h.activityDay)
	api.HandleFunc(p(http.MethodPost, "/roster/save"), h.save)
	api.HandleFunc(p(http.MethodPost, "/roster/load"), h.load)
	// WebSocket events
	if hub != nil {
		api.Handle(p(http.MethodGet, "/ws"), wsadapter.Handler(hub))
	}
	api.HandleFunc(withPrefix(opts.PathPrefix, "/"), func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})

	var protected http.Handler = api
	if len(opts.APIKeys) > 0 {
		protected = withAPIKeyAuth(protected, opts.APIKeys)
	}

	// health and metrics stay reachable for liveness checks and scrapers
	root := http.NewServeMux()
	root.HandleFunc(p(http.MethodGet, "/healthz"), h.health)
	if opts.Metrics != nil {
		root.Handle(p(http.MethodGet, "/metrics"), opts.Metrics)
	}
	root.Handle("/", protected)

	var handler http.Handler = root
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	handler = withRequestLog(handler, log)
	handler = withRequestID(handler)
	return handler
}

// Helpers

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "invalid_input", ve.Error(), map[string]any{"field": ve.Field})
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrDuplicateID):
		writeError(w, http.StatusConflict, "duplicate_id", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}
