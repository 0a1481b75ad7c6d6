package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kdimtricp/vidagent/internal/api"
	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/client"
	"github.com/kdimtricp/vidagent/internal/database"
	"github.com/kdimtricp/vidagent/internal/display"
	"github.com/kdimtricp/vidagent/internal/tools"
)

const analysisPayload = `{
	"transcript": {"full_text": "look at the dog", "segments": [{"start": 2, "end": 4, "text": "look at the dog"}]},
	"scenes": {"timeline": [{"start": 0, "end": 30, "description": "a dog on a beach"}], "summary": "beach walk"},
	"comparison": {"overall_analysis": {"average_match_score": 0.8, "coherence_level": "high"}}
}`

// fakeBackend stands in for the analysis service. Each session reports
// pending for pendingPolls status checks before completing.
type fakeBackend struct {
	mu           sync.Mutex
	pendingPolls int
	fail         string
	flaky        int
	statusChecks map[string]int
	started      []map[string]any
	requests     []string
	nextID       int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, r.URL.RequestURI())
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/analyze":
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"bad body"}`)
			return
		}
		b.started = append(b.started, body)
		b.nextID++
		fmt.Fprintf(w, `{"session_id":"sess-%d","status":"pending"}`, b.nextID)

	case strings.HasPrefix(r.URL.Path, "/api/status/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/status/")
		if !strings.HasPrefix(id, "sess-") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"Session not found"}`)
			return
		}
		if b.flaky > 0 {
			b.flaky--
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "<html><body>502 Bad Gateway</body></html>")
			return
		}
		b.statusChecks[id]++
		switch {
		case b.statusChecks[id] <= b.pendingPolls:
			fmt.Fprint(w, `{"status":"pending"}`)
		case b.fail != "":
			fmt.Fprintf(w, `{"status":"error","error":%q}`, b.fail)
		default:
			fmt.Fprintf(w, `{"status":"completed","data":%s}`, analysisPayload)
		}

	case strings.HasPrefix(r.URL.Path, "/api/transcript/"):
		fmt.Fprintf(w, `{"timestamp":%q,"segments":[{"start":2,"end":4,"text":"look at the dog"}]}`, r.URL.Query().Get("timestamp"))

	case strings.HasPrefix(r.URL.Path, "/api/scenes/"):
		fmt.Fprint(w, `{"timeline":[{"start":0,"end":30,"description":"a dog on a beach"}]}`)

	case strings.HasPrefix(r.URL.Path, "/api/comparison/"):
		fmt.Fprint(w, `{"overall_analysis":{"average_match_score":0.8,"coherence_level":"high"}}`)

	case strings.HasPrefix(r.URL.Path, "/api/search/"):
		fmt.Fprintf(w, `{"query":%q,"matches":[]}`, r.URL.Query().Get("query"))

	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not found"}`)
	}
}

func (b *fakeBackend) failWith(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = msg
}

// failStatusChecks makes the next n status checks answer with a gateway error
// page instead of JSON.
func (b *fakeBackend) failStatusChecks(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flaky = n
}

func (b *fakeBackend) checks(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusChecks[sessionID]
}

type TestStack struct {
	Backend *fakeBackend
	Proxy   *httptest.Server
	Client  *client.Client
	Toolset *tools.Toolset
	Ledger  *database.SessionLedger
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// setupStack wires a fake backend behind the real router, a sqlite ledger and
// a toolset that talks to the router over HTTP.
func setupStack(t *testing.T, pendingPolls int) *TestStack {
	t.Helper()

	fb := &fakeBackend{pendingPolls: pendingPolls, statusChecks: map[string]int{}}
	backendServer := httptest.NewServer(fb)
	t.Cleanup(backendServer.Close)

	ledger, db, err := database.OpenLedger(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// The router serves the tools, and the tools call back into the router.
	var handler http.Handler
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(proxy.Close)

	proxyClient := client.New(proxy.URL, 5*time.Second)
	toolset := tools.New(proxyClient, tools.Config{
		TranscribeModel: "whisper-1",
		VisionModel:     "gpt-4o",
		FrameSampleRate: 2,
		Poller:          tools.Poller{MaxAttempts: 10, Sleep: noSleep},
	})

	handler = api.NewRouter(api.Deps{
		Backend:  backend.NewClient(backendServer.URL, 5*time.Second),
		Ledger:   ledger,
		Registry: tools.NewRegistry(toolset),
		Watcher:  display.NewWatcher(proxyClient, time.Millisecond),
	})

	return &TestStack{
		Backend: fb,
		Proxy:   proxy,
		Client:  proxyClient,
		Toolset: toolset,
		Ledger:  ledger,
	}
}
