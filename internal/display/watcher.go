package display

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/client"
	"github.com/kdimtricp/vidagent/internal/models"
)

const DefaultInterval = 3 * time.Second

// Source is the part of the proxy client the watcher reads from.
type Source interface {
	Status(ctx context.Context, sessionID string) (*models.StatusResponse, error)
	Fetch(ctx context.Context, p client.Params) (json.RawMessage, error)
}

// Snapshot is what the display knows about a session after one poll.
type Snapshot struct {
	SessionID string                 `json:"session_id"`
	Status    models.Status          `json:"status"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Polls     int                    `json:"polls"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (s Snapshot) Done() bool {
	return s.Status.Terminal()
}

// Watcher polls a session on its own schedule, independent of any tool call
// that may be waiting on the same session.
type Watcher struct {
	source   Source
	interval time.Duration
}

func NewWatcher(source Source, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{source: source, interval: interval}
}

// Watch polls immediately and then every interval, sending a Snapshot after
// each poll. The channel closes after a terminal snapshot or when ctx ends.
func (w *Watcher) Watch(ctx context.Context, sessionID string) <-chan Snapshot {
	out := make(chan Snapshot)

	go func() {
		defer close(out)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var comparisonTried bool
		for polls := 1; ; polls++ {
			snap := w.poll(ctx, sessionID, &comparisonTried)
			snap.Polls = polls

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			if snap.Done() {
				log.Printf("[WATCH] Session %s reached %s after %d polls", sessionID, snap.Status, polls)
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Poll takes a single snapshot, for pages that render once.
func (w *Watcher) Poll(ctx context.Context, sessionID string) Snapshot {
	var comparisonTried bool
	snap := w.poll(ctx, sessionID, &comparisonTried)
	snap.Polls = 1
	return snap
}

func (w *Watcher) poll(ctx context.Context, sessionID string, comparisonTried *bool) Snapshot {
	snap := Snapshot{SessionID: sessionID, UpdatedAt: time.Now().UTC()}

	status, err := w.source.Status(ctx, sessionID)
	if err != nil {
		log.Printf("[WATCH] Status for %s failed: %v", sessionID, err)
		snap.Error = err.Error()
		return snap
	}
	snap.Status = status.Status

	switch status.Status {
	case models.StatusError:
		snap.Error = status.Error
		if snap.Error == "" {
			snap.Error = "Analysis failed"
		}
	case models.StatusCompleted:
		result, err := models.DecodeResult(status.Data)
		if err != nil {
			log.Printf("[WATCH] Could not decode result for %s: %v", sessionID, err)
			result = &models.AnalysisResult{}
		}
		if result.Comparison == nil && !*comparisonTried {
			*comparisonTried = true
			result.Comparison = w.fetchComparison(ctx, sessionID)
		}
		snap.Result = result
	}

	return snap
}

func (w *Watcher) fetchComparison(ctx context.Context, sessionID string) *models.Comparison {
	data, err := w.source.Fetch(ctx, client.Params{SessionID: sessionID, Action: backend.ActionComparison})
	if err != nil {
		log.Printf("[WATCH] Comparison for %s unavailable: %v", sessionID, err)
		return nil
	}

	comparison, err := models.DecodeComparison(data)
	if err != nil {
		log.Printf("[WATCH] Could not decode comparison for %s: %v", sessionID, err)
		return nil
	}
	return comparison
}

// DecodeSnapshot builds a completed snapshot from a payload that was already
// fetched, such as the data of a finished start_analysis call.
func DecodeSnapshot(sessionID string, data json.RawMessage) (Snapshot, error) {
	result, err := models.DecodeResult(data)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		SessionID: sessionID,
		Status:    models.StatusCompleted,
		Result:    result,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
