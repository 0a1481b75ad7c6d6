package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/vidagent/internal/display"
)

type SessionHandlers struct {
	watcher *display.Watcher
	ledger  Ledger
}

// NewSessionHandlers serves the display pages and the ledger listing. ledger
// may be nil.
func NewSessionHandlers(watcher *display.Watcher, ledger Ledger) *SessionHandlers {
	return &SessionHandlers{watcher: watcher, ledger: ledger}
}

func (h *SessionHandlers) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "Session ledger is disabled")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.ledger.ListRecent(r.Context(), limit)
	if err != nil {
		log.Printf("[LEDGER] Error listing sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *SessionHandlers) SessionPageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snap := h.watcher.Poll(r.Context(), sessionID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := display.RenderHTML(w, snap); err != nil {
		log.Printf("[WATCH] Error rendering session %s: %v", sessionID, err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

// SessionStreamHandler sends one "snapshot" event per poll until the session
// is terminal or the client goes away.
func (h *SessionHandlers) SessionStreamHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	for snap := range h.watcher.Watch(r.Context(), sessionID) {
		data, err := json.Marshal(snap)
		if err != nil {
			log.Printf("[WATCH] Error marshaling snapshot: %v", err)
			continue
		}

		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprint(w, "event: done\ndata: {}\n\n")
	flusher.Flush()
}
