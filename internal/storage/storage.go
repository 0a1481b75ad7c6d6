package storage

import (
	"errors"
	"io"
)

var ErrInvalidName = errors.New("invalid result name")

// ResultStore keeps exported analysis payloads, one per session.
type ResultStore interface {
	SaveResult(sessionID string, data []byte) (string, error)
	OpenResult(sessionID string) (io.ReadSeekCloser, error)
	DeleteResult(sessionID string) error
}
