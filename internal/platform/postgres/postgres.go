// Package postgres owns the database handle and schema for the intake
// service.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects via the pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the full DDL, idempotent so it can run at every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS applications (
	id UUID PRIMARY KEY,
	reference_no TEXT NOT NULL UNIQUE,
	access_token TEXT NOT NULL UNIQUE,
	variant TEXT NOT NULL,
	fields JSONB NOT NULL DEFAULT '{}',
	status TEXT NOT NULL,
	status_note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_status ON applications (status);
CREATE INDEX IF NOT EXISTS idx_applications_created_at ON applications (created_at DESC);

CREATE TABLE IF NOT EXISTS documents (
	application_id UUID NOT NULL REFERENCES applications (id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	locator TEXT NOT NULL DEFAULT '',
	original_name TEXT NOT NULL DEFAULT '',
	size BIGINT NOT NULL DEFAULT 0,
	mandatory BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ,
	PRIMARY KEY (application_id, type)
);

CREATE TABLE IF NOT EXISTS notes (
	id UUID PRIMARY KEY,
	application_id UUID NOT NULL REFERENCES applications (id) ON DELETE CASCADE,
	author TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_application ON notes (application_id, created_at DESC);

CREATE TABLE IF NOT EXISTS notification_log (
	id UUID PRIMARY KEY,
	application_id UUID NOT NULL,
	channel TEXT NOT NULL,
	recipient TEXT NOT NULL,
	template TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notification_log_application ON notification_log (application_id, created_at DESC);

CREATE TABLE IF NOT EXISTS admin_users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema applies the DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
