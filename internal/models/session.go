package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is the proxy's own note that a session was started through
// it. The backend stays the owner of the session itself.
type SessionRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	VideoInput string    `json:"video_input"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewSessionRecord(sessionID, videoInput string, status Status) *SessionRecord {
	if status == "" {
		status = StatusPending
	}
	now := time.Now().UTC()
	return &SessionRecord{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		VideoInput: videoInput,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
