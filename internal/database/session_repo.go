package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kdimtricp/vidagent/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionLedger struct {
	db *DB
}

func NewSessionLedger(db *DB) *SessionLedger {
	return &SessionLedger{db: db}
}

// Record inserts a session, or refreshes it if the backend hands out the same
// id twice.
func (l *SessionLedger) Record(ctx context.Context, record *models.SessionRecord) error {
	query := l.db.rebind(`
		INSERT INTO analysis_sessions (
			id, session_id, video_input, status, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id)
		DO UPDATE SET
			video_input = EXCLUDED.video_input,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at`)

	_, err := l.db.conn.ExecContext(ctx, query,
		record.ID,
		record.SessionID,
		record.VideoInput,
		string(record.Status),
		record.Error,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

func (l *SessionLedger) UpdateStatus(ctx context.Context, sessionID string, status models.Status, errMsg string) error {
	query := l.db.rebind(`
		UPDATE analysis_sessions
		SET status = ?, error_message = ?, updated_at = ?
		WHERE session_id = ?`)

	result, err := l.db.conn.ExecContext(ctx, query, string(status), errMsg, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (l *SessionLedger) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	query := l.db.rebind(`
		SELECT id, session_id, video_input, status, error_message, created_at, updated_at
		FROM analysis_sessions
		WHERE session_id = ?`)

	record, err := scanRecord(l.db.conn.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return record, nil
}

func (l *SessionLedger) ListRecent(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := l.db.rebind(`
		SELECT id, session_id, video_input, status, error_message, created_at, updated_at
		FROM analysis_sessions
		ORDER BY created_at DESC
		LIMIT ?`)

	rows, err := l.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	records := []models.SessionRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

func (l *SessionLedger) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := l.db.conn.QueryContext(ctx, "SELECT status, COUNT(*) FROM analysis_sessions GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.SessionRecord, error) {
	var r models.SessionRecord
	var status string
	if err := row.Scan(&r.ID, &r.SessionID, &r.VideoInput, &status, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = models.Status(status)
	return &r, nil
}
