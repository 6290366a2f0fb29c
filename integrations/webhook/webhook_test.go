package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterkit/core"
)

func sampleEvent(t *testing.T) core.Event {
	t.Helper()
	r, err := core.NewRecord(101, "Ella Cynthia", 4.5)
	require.NoError(t, err)
	return core.NewRecordAdded(r, 1)
}

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL, srv.URL})
	sink.OnEvent(sampleEvent(t))

	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", hits)
	}
}

func TestSink_PayloadAndSignature(t *testing.T) {
	var (
		mu   sync.Mutex
		body []byte
		hdr  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		body, _ = io.ReadAll(r.Body)
		hdr = r.Header.Clone()
	}))
	defer srv.Close()

	New([]string{srv.URL}, WithSecret("s3cret")).OnEvent(sampleEvent(t))

	mu.Lock()
	defer mu.Unlock()
	var got core.Event
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, core.EventRecordAdded, got.Type)
	assert.Equal(t, core.RecordID(101), got.RecordID)
	assert.Equal(t, "Ella Cynthia", got.Name)
	assert.Equal(t, "record_added", hdr.Get(EventHeader))
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.True(t, Verify([]byte("s3cret"), body, hdr.Get(SignatureHeader)))
	assert.False(t, Verify([]byte("other"), body, hdr.Get(SignatureHeader)))
}

func TestSink_EventTypeFilter(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	sink := New([]string{srv.URL}, WithEventTypes(core.EventRosterSaved))
	sink.OnEvent(sampleEvent(t))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	sink.OnEvent(core.NewRosterSaved(3, "memory"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSink_FailuresDoNotStopDelivery(t *testing.T) {
	var hits int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer good.Close()

	sink := New([]string{"http://127.0.0.1:0/unreachable", bad.URL, good.URL})
	sink.OnEvent(sampleEvent(t))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Len(t, sink.Endpoints(), 3)
}

func TestSink_NoEndpointsIsNoop(t *testing.T) {
	New(nil).OnEvent(sampleEvent(t))
}
