package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kdimtricp/vidagent/internal/client"
)

var (
	ErrStartFailed         = errors.New("start returned no session id")
	ErrTimeout             = errors.New("polling attempts exhausted")
	ErrUnrecognizedCommand = errors.New("command not recognized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownTool         = errors.New("unknown tool")
)

const (
	msgStartFailed    = "Failed to start analysis"
	msgTimeout        = "Analysis timed out"
	msgAnalysisFailed = "Analysis failed"
	msgCancelled      = "Analysis cancelled"
	msgUnrecognized   = "Command not recognized"
	msgNoSession      = "No active session"
)

// BackendError covers both a session the backend reported as failed and any
// transport or decoding failure on the way to it. StatusCode is zero unless
// the proxy answered with a non-2xx status.
type BackendError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func toBackendError(err error) *BackendError {
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Message
		if msg == "" {
			msg = statusErr.Error()
		}
		return &BackendError{StatusCode: statusErr.StatusCode, Message: msg, Err: err}
	}

	return &BackendError{Message: err.Error(), Err: err}
}

// Result is what every tool returns. Failures are reported in Error rather
// than as a Go error so the caller (agent or UI) always gets a JSON object;
// Err gives typed access to the same failure.
type Result struct {
	Success   bool            `json:"success,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Action    string          `json:"action,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`

	err error
}

func (r Result) Err() error {
	return r.err
}

func (r Result) Failed() bool {
	return r.Error != ""
}

func failure(msg string, err error) Result {
	return Result{Error: msg, err: err}
}

func backendFailure(err error) Result {
	be := toBackendError(err)
	return Result{Error: be.Message, err: be}
}

func invalidInput(field string) Result {
	return failure(field+" is required", fmt.Errorf("%w: %s is required", ErrInvalidInput, field))
}

func pollFailure(sessionID string, err error) Result {
	var r Result
	switch {
	case errors.Is(err, ErrTimeout):
		r = failure(msgTimeout, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r = failure(msgCancelled, err)
	default:
		r = backendFailure(err)
	}
	r.SessionID = sessionID
	return r
}
