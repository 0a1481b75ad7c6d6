package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kdimtricp/vidagent/internal/client"
	"github.com/kdimtricp/vidagent/internal/display"
	"github.com/kdimtricp/vidagent/internal/models"
	"github.com/kdimtricp/vidagent/internal/tools"
)

// sequenceSource answers status polls from a fixed list; the last entry repeats.
type sequenceSource struct {
	statuses []models.StatusResponse
	calls    int
}

func (s *sequenceSource) Status(ctx context.Context, sessionID string) (*models.StatusResponse, error) {
	i := s.calls
	s.calls++
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	st := s.statuses[i]
	return &st, nil
}

func (s *sequenceSource) Fetch(ctx context.Context, p client.Params) (json.RawMessage, error) {
	return nil, errors.New("no comparison")
}

func (s *sequenceSource) Start(ctx context.Context, req models.StartRequest) (*models.StartResponse, error) {
	return &models.StartResponse{SessionID: "new-session"}, nil
}

func TestSessionPage(t *testing.T) {
	source := &sequenceSource{statuses: []models.StatusResponse{{
		Status: models.StatusCompleted,
		Data:   json.RawMessage(`{"scenes":{"timeline":[{"start":0,"end":4,"description":"a red car"}],"summary":"traffic"}}`),
	}}}
	h := NewRouter(Deps{Watcher: display.NewWatcher(source, time.Millisecond)})

	rec := serve(h, http.MethodGet, "/sessions/abc", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "a red car") {
		t.Errorf("Page missing scene:\n%s", rec.Body.String())
	}
}

func TestSessionStream(t *testing.T) {
	source := &sequenceSource{statuses: []models.StatusResponse{
		{Status: models.StatusPending},
		{Status: models.StatusError, Error: "bad input"},
	}}
	server := httptest.NewServer(NewRouter(Deps{Watcher: display.NewWatcher(source, time.Millisecond)}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/sessions/abc/stream")
	if err != nil {
		t.Fatalf("Stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream, got %s", ct)
	}

	var events []string
	var snaps []display.Snapshot
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok && events[len(events)-1] == "snapshot" {
			var snap display.Snapshot
			if err := json.Unmarshal([]byte(data), &snap); err != nil {
				t.Fatalf("Bad snapshot data: %v", err)
			}
			snaps = append(snaps, snap)
		}
	}

	if strings.Join(events, ",") != "snapshot,snapshot,done" {
		t.Fatalf("Unexpected events %v", events)
	}
	if snaps[0].Status != models.StatusPending || snaps[1].Error != "bad input" {
		t.Errorf("Unexpected snapshots %+v", snaps)
	}
}

func TestListSessions(t *testing.T) {
	t.Run("disabled ledger", func(t *testing.T) {
		rec := serve(NewRouter(Deps{}), http.MethodGet, "/api/sessions", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
	})

	t.Run("lists records", func(t *testing.T) {
		ledger := newMemLedger()
		ledger.records["abc"] = models.NewSessionRecord("abc", "v.mp4", models.StatusCompleted)

		rec := serve(NewRouter(Deps{Ledger: ledger}), http.MethodGet, "/api/sessions?limit=5", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Unexpected status %d", rec.Code)
		}
		var records []models.SessionRecord
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatalf("Bad JSON: %v", err)
		}
		if len(records) != 1 || records[0].SessionID != "abc" {
			t.Errorf("Unexpected records %+v", records)
		}
	})

	t.Run("ledger error", func(t *testing.T) {
		ledger := newMemLedger()
		ledger.failWith = errors.New("locked")
		rec := serve(NewRouter(Deps{Ledger: ledger}), http.MethodGet, "/api/sessions", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", rec.Code)
		}
	})
}

func TestInvokeTool(t *testing.T) {
	source := &sequenceSource{statuses: []models.StatusResponse{{Status: models.StatusCompleted}}}
	registry := tools.NewRegistry(tools.New(source, tools.Config{
		Poller: tools.Poller{Sleep: func(ctx context.Context, d time.Duration) error { return nil }},
	}))
	h := NewRouter(Deps{Registry: registry})

	t.Run("voice command", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/tools/voice_command", `{"command":"pause"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Unexpected status %d", rec.Code)
		}
		var result tools.Result
		json.Unmarshal(rec.Body.Bytes(), &result)
		if result.Action != "pause" || result.Message != "Video paused" {
			t.Errorf("Unexpected result %+v", result)
		}
	})

	t.Run("tool failure is still 200", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/tools/get_transcript", `{}`)
		if rec.Code != http.StatusOK || errorBody(t, rec) != "session_id is required" {
			t.Errorf("Unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("start analysis", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/tools/start_analysis", `{"video_url":"v.mp4"}`)
		var result tools.Result
		json.Unmarshal(rec.Body.Bytes(), &result)
		if !result.Success || result.SessionID != "new-session" {
			t.Errorf("Unexpected result %s", rec.Body.String())
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/tools/format_disk", `{}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("list tools", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/tools", "")
		var list []map[string]any
		json.Unmarshal(rec.Body.Bytes(), &list)
		if len(list) != 6 {
			t.Errorf("Expected 6 tools, got %d", len(list))
		}
	})
}
