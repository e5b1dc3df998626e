package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresLogStore persists notification log entries in PostgreSQL.
type PostgresLogStore struct {
	db *sql.DB
}

func NewPostgresLogStore(db *sql.DB) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

func (s *PostgresLogStore) Append(ctx context.Context, entry LogEntry) error {
	query := `
		INSERT INTO notification_log (id, application_id, channel, recipient, template, subject, outcome, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ApplicationID,
		string(entry.Channel),
		entry.Recipient,
		entry.Template,
		entry.Subject,
		entry.Outcome,
		entry.Error,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append notification log: %w", err)
	}
	return nil
}

func (s *PostgresLogStore) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, application_id, channel, recipient, template, subject, outcome, error, created_at
		FROM notification_log
		WHERE application_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list notification log: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var channel string
		if err := rows.Scan(&e.ID, &e.ApplicationID, &channel, &e.Recipient, &e.Template, &e.Subject, &e.Outcome, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		e.Channel = Channel(channel)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification log: %w", err)
	}
	return out, nil
}
