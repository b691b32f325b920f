// Package sessions provides a PostgreSQL-backed store for browser sessions
// and the one-shot flash messages attached to them.
package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/dbx"
)

// PostgresRepository implements session and flash storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Touch creates the session or extends its expiry.
func (r *PostgresRepository) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, id, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// AddFlash queues message for the next render of sessionID.
func (r *PostgresRepository) AddFlash(ctx context.Context, sessionID, message string) error {
	query := `
		INSERT INTO flashes (session_id, message)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, message); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// PopFlashes removes and returns the queued messages in insertion order.
// Reading and deleting happen in one statement, so two concurrent renders
// never see the same message.
func (r *PostgresRepository) PopFlashes(ctx context.Context, sessionID string) ([]string, error) {
	query := `
		WITH popped AS (
			DELETE FROM flashes
			WHERE session_id = $1
			RETURNING id, message
		)
		SELECT message FROM popped ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// Delete removes a session; its flashes go with it.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and reports how many.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
