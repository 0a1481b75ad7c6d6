package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const resultExt = ".json"

var _ ResultStore = (*LocalStorage)(nil)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// SaveResult writes data as <sessionID>.json, replacing any earlier export.
// The file appears atomically. It returns the full path written.
func (ls *LocalStorage) SaveResult(sessionID string, data []byte) (string, error) {
	name, err := resultName(sessionID)
	if err != nil {
		return "", err
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("result for %s is not valid JSON", sessionID)
	}

	fullPath := filepath.Join(ls.basePath, name)
	tmpPath := filepath.Join(ls.basePath, "."+uuid.New().String()+".tmp")

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save result: %w", err)
	}

	return fullPath, nil
}

func (ls *LocalStorage) OpenResult(sessionID string) (io.ReadSeekCloser, error) {
	name, err := resultName(sessionID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(ls.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open result: %w", err)
	}

	return file, nil
}

func (ls *LocalStorage) DeleteResult(sessionID string) error {
	name, err := resultName(sessionID)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(ls.basePath, name)); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	return nil
}

// resultName maps a session id to a file name inside the results directory.
func resultName(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" || id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, sessionID)
	}
	return id + resultExt, nil
}
