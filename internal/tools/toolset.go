package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/client"
	"github.com/kdimtricp/vidagent/internal/models"
)

// Proxy is the subset of the proxy client the tools need.
type Proxy interface {
	Start(ctx context.Context, req models.StartRequest) (*models.StartResponse, error)
	Status(ctx context.Context, sessionID string) (*models.StatusResponse, error)
	Fetch(ctx context.Context, p client.Params) (json.RawMessage, error)
}

type Config struct {
	TranscribeModel string
	VisionModel     string
	FrameSampleRate int
	Poller          Poller
}

type Toolset struct {
	proxy  Proxy
	config Config
}

func New(proxy Proxy, config Config) *Toolset {
	if config.FrameSampleRate == 0 {
		config.FrameSampleRate = 1
	}
	return &Toolset{
		proxy:  proxy,
		config: config,
	}
}

// StartAndPoll starts an analysis of videoURL and blocks until the backend
// reports a terminal status, the attempt ceiling is hit, or ctx ends.
// analysisType is an optional hint forwarded with the start request.
func (t *Toolset) StartAndPoll(ctx context.Context, videoURL, analysisType string) Result {
	if strings.TrimSpace(videoURL) == "" {
		return invalidInput("video_url")
	}

	startResp, err := t.proxy.Start(ctx, models.StartRequest{
		VideoInput:      videoURL,
		TranscribeModel: t.config.TranscribeModel,
		VisionModel:     t.config.VisionModel,
		FrameSampleRate: t.config.FrameSampleRate,
		AnalysisType:    analysisType,
	})
	if err != nil {
		log.Printf("[POLL] Start request failed for %s: %v", videoURL, err)
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			return failure(msgStartFailed, fmt.Errorf("%w: %w", ErrStartFailed, toBackendError(err)))
		}
		return backendFailure(err)
	}

	if startResp.SessionID == "" {
		log.Printf("[POLL] Backend returned no session id for %s", videoURL)
		return failure(msgStartFailed, ErrStartFailed)
	}

	log.Printf("[POLL] Started session %s for %s", startResp.SessionID, videoURL)
	return t.Poll(ctx, startResp.SessionID)
}

// Poll waits for an already started session to finish.
func (t *Toolset) Poll(ctx context.Context, sessionID string) Result {
	if strings.TrimSpace(sessionID) == "" {
		return invalidInput("session_id")
	}

	var result Result
	attempts, err := t.config.Poller.Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
		status, err := t.proxy.Status(ctx, sessionID)
		if err != nil {
			// A non-2xx answer carries no status, so the session is still unresolved.
			var statusErr *client.StatusError
			if errors.As(err, &statusErr) {
				log.Printf("[POLL] Session %s status check %d answered %d: %s", sessionID, attempt, statusErr.StatusCode, statusErr.Message)
				return false, nil
			}
			return false, toBackendError(err)
		}

		switch status.Status {
		case models.StatusCompleted:
			result = Result{Success: true, SessionID: sessionID, Data: status.Data}
			return true, nil
		case models.StatusError:
			msg := status.Error
			if msg == "" {
				msg = msgAnalysisFailed
			}
			return false, &BackendError{Message: msg}
		}

		log.Printf("[POLL] Session %s status %q (attempt %d)", sessionID, status.Status, attempt)
		return false, nil
	})
	if err != nil {
		log.Printf("[POLL] Session %s stopped after %d status checks: %v", sessionID, attempts, err)
		return pollFailure(sessionID, err)
	}

	log.Printf("[POLL] Session %s completed after %d status checks", sessionID, attempts)
	return result
}

func (t *Toolset) GetTranscript(ctx context.Context, sessionID string, timestamp *float64) Result {
	return t.retrieve(ctx, client.Params{SessionID: sessionID, Action: backend.ActionTranscript, Timestamp: timestamp})
}

func (t *Toolset) GetScenes(ctx context.Context, sessionID string, timestamp *float64) Result {
	return t.retrieve(ctx, client.Params{SessionID: sessionID, Action: backend.ActionScenes, Timestamp: timestamp})
}

func (t *Toolset) GetComparison(ctx context.Context, sessionID string) Result {
	return t.retrieve(ctx, client.Params{SessionID: sessionID, Action: backend.ActionComparison})
}

func (t *Toolset) Search(ctx context.Context, sessionID, query string) Result {
	if strings.TrimSpace(query) == "" {
		return invalidInput("query")
	}
	return t.retrieve(ctx, client.Params{SessionID: sessionID, Action: backend.ActionSearch, Query: query})
}

// Status reads the session status once without waiting.
func (t *Toolset) Status(ctx context.Context, sessionID string) Result {
	return t.retrieve(ctx, client.Params{SessionID: sessionID, Action: backend.ActionStatus})
}

func (t *Toolset) retrieve(ctx context.Context, p client.Params) Result {
	if strings.TrimSpace(p.SessionID) == "" {
		return invalidInput("session_id")
	}

	body, err := t.proxy.Fetch(ctx, p)
	if err != nil {
		log.Printf("[TOOLS] %s for session %s failed: %v", p.Action, p.SessionID, err)
		return backendFailure(err)
	}

	return Result{Success: true, Data: body}
}
