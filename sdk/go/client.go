package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"rosterkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the roster HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// ListRecords returns the roster in its current order.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var body struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, "/records", nil, nil, &body); err != nil {
		return nil, err
	}
	return body.Records, nil
}

// AddRecord appends a record and returns it as stored.
func (c *Client) AddRecord(ctx context.Context, id int, name string, score float64) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	var rec Record
	err := c.do(ctx, http.MethodPost, "/records", nil, Record{ID: id, Name: name, Score: score}, &rec)
	return rec, err
}

// GetRecord looks a record up by id. An empty mode uses the server default.
func (c *Client) GetRecord(ctx context.Context, id int, mode SearchMode) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	var q url.Values
	if mode != "" {
		q = url.Values{"search": {string(mode)}}
	}
	var rec Record
	err := c.do(ctx, http.MethodGet, recordPath(id), q, nil, &rec)
	return rec, err
}

// Rank returns the ranking position of a record.
func (c *Client) Rank(ctx context.Context, id int) (RankEntry, error) {
	if id <= 0 {
		return RankEntry{}, ErrInvalidID
	}
	var e RankEntry
	err := c.do(ctx, http.MethodGet, recordPath(id)+"/rank", nil, nil, &e)
	return e, err
}

// UpdateScore sets a record's score.
func (c *Client) UpdateScore(ctx context.Context, id int, score float64) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	q := url.Values{"value": {strconv.FormatFloat(score, 'f', -1, 64)}}
	var rec Record
	err := c.do(ctx, http.MethodPut, recordPath(id)+"/score", q, nil, &rec)
	return rec, err
}

// Rename sets a record's name.
func (c *Client) Rename(ctx context.Context, id int, name string) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	var rec Record
	err := c.do(ctx, http.MethodPut, recordPath(id)+"/name", nil, map[string]string{"name": name}, &rec)
	return rec, err
}

// RemoveRecord deletes a record and returns it.
func (c *Client) RemoveRecord(ctx context.Context, id int) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	var rec Record
	err := c.do(ctx, http.MethodDelete, recordPath(id), nil, nil, &rec)
	return rec, err
}

// Sort reorders the roster on the server and returns the new order.
func (c *Client) Sort(ctx context.Context, key SortKey) ([]Record, error) {
	var body struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodPost, "/roster/sort", url.Values{"by": {string(key)}}, nil, &body); err != nil {
		return nil, err
	}
	return body.Records, nil
}

// Summary returns the count, average and extreme records.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := c.do(ctx, http.MethodGet, "/roster/summary", nil, nil, &s)
	return s, err
}

// Report returns the score distribution report.
func (c *Client) Report(ctx context.Context) (Report, error) {
	var r Report
	err := c.do(ctx, http.MethodGet, "/roster/report", nil, nil, &r)
	return r, err
}

// Ranking returns the top n records. n <= 0 uses the server default.
func (c *Client) Ranking(ctx context.Context, n int) ([]RankEntry, error) {
	var q url.Values
	if n > 0 {
		q = url.Values{"n": {strconv.Itoa(n)}}
	}
	var body struct {
		Entries []RankEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/roster/ranking", q, nil, &body); err != nil {
		return nil, err
	}
	return body.Entries, nil
}

// Activity returns event counts for a UTC day. The zero time means today.
func (c *Client) Activity(ctx context.Context, day time.Time) (Activity, error) {
	var q url.Values
	if !day.IsZero() {
		q = url.Values{"day": {day.UTC().Format("2006-01-02")}}
	}
	var a Activity
	err := c.do(ctx, http.MethodGet, "/roster/activity", q, nil, &a)
	return a, err
}

// Save persists the roster through the server's storage adapter.
func (c *Client) Save(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, http.MethodPost, "/roster/save", nil, nil, &body)
	return body.Count, err
}

// Load replaces the roster from the server's storage adapter.
func (c *Client) Load(ctx context.Context) (LoadResult, error) {
	var res LoadResult
	err := c.do(ctx, http.MethodPost, "/roster/load", nil, nil, &res)
	return res, err
}

// Health calls /healthz and returns status + record count.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, &hs)
	return hs, err
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values,
// optionally restricted to types.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, types ...core.EventType) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		target += "?types=" + url.QueryEscape(strings.Join(names, ","))
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// unblocks ReadJSON below
			_ = conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			default:
				// drop if consumer is slow
			}
		}
	}()
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	c.applyHeaders(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

func recordPath(id int) string { return fmt.Sprintf("/records/%d", id) }

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
