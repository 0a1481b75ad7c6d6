package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/database"
	"github.com/kdimtricp/vidagent/internal/models"
)

const (
	msgSessionRequired = "Session ID is required"
	msgStartFailed     = "Failed to start analysis"
	msgFetchFailed     = "Failed to fetch analysis data"
)

// Backend is the analysis service as the proxy sees it.
type Backend interface {
	Analyze(ctx context.Context, body []byte) (*backend.Response, error)
	Query(ctx context.Context, q backend.Query) (*backend.Response, error)
}

// Ledger keeps the proxy's own record of sessions it started. It is written
// on a best-effort basis and never read to answer analysis requests.
type Ledger interface {
	Record(ctx context.Context, record *models.SessionRecord) error
	UpdateStatus(ctx context.Context, sessionID string, status models.Status, errMsg string) error
	ListRecent(ctx context.Context, limit int) ([]models.SessionRecord, error)
}

type ProxyHandlers struct {
	backend Backend
	ledger  Ledger
}

// NewProxyHandlers wires the proxy route. ledger may be nil.
func NewProxyHandlers(b Backend, ledger Ledger) *ProxyHandlers {
	return &ProxyHandlers{backend: b, ledger: ledger}
}

func (h *ProxyHandlers) StartAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		log.Printf("[PROXY] Error reading start request: %v", err)
		writeError(w, http.StatusInternalServerError, msgStartFailed)
		return
	}
	if !json.Valid(body) {
		log.Printf("[PROXY] Start request body is not JSON")
		writeError(w, http.StatusInternalServerError, msgStartFailed)
		return
	}

	resp, err := h.backend.Analyze(r.Context(), body)
	if err != nil {
		log.Printf("[PROXY] Error starting analysis: %v", err)
		writeError(w, http.StatusInternalServerError, msgStartFailed)
		return
	}

	h.recordStart(r.Context(), body, resp)
	writeRaw(w, resp.StatusCode, resp.Body)
}

func (h *ProxyHandlers) QueryHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	sessionID := params.Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, msgSessionRequired)
		return
	}

	q := backend.Query{
		SessionID: sessionID,
		Action:    backend.ParseAction(params.Get("action")),
		Timestamp: params.Get("timestamp"),
		Search:    params.Get("query"),
	}

	resp, err := h.backend.Query(r.Context(), q)
	if err != nil {
		log.Printf("[PROXY] Error fetching %s for %s: %v", q.Action, sessionID, err)
		writeError(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	if q.Action == backend.ActionStatus {
		h.recordStatus(r.Context(), sessionID, resp)
	}
	writeRaw(w, resp.StatusCode, resp.Body)
}

func (h *ProxyHandlers) recordStart(ctx context.Context, reqBody []byte, resp *backend.Response) {
	if h.ledger == nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	var started models.StartResponse
	if err := json.Unmarshal(resp.Body, &started); err != nil || started.SessionID == "" {
		return
	}
	var req models.StartRequest
	_ = json.Unmarshal(reqBody, &req)

	record := models.NewSessionRecord(started.SessionID, req.VideoInput, started.Status)
	if err := h.ledger.Record(ctx, record); err != nil {
		log.Printf("[LEDGER] Could not record session %s: %v", started.SessionID, err)
	}
}

func (h *ProxyHandlers) recordStatus(ctx context.Context, sessionID string, resp *backend.Response) {
	if h.ledger == nil || resp.StatusCode != http.StatusOK {
		return
	}

	var status models.StatusResponse
	if err := json.Unmarshal(resp.Body, &status); err != nil || !status.Status.Terminal() {
		return
	}

	err := h.ledger.UpdateStatus(ctx, sessionID, status.Status, status.Error)
	switch {
	case errors.Is(err, database.ErrSessionNotFound):
		// Started elsewhere; nothing to update.
	case err != nil:
		log.Printf("[LEDGER] Could not update session %s: %v", sessionID, err)
	}
}
