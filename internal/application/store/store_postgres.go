package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"posintake/internal/application/models"
	"posintake/internal/catalog"
	"posintake/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists applications in PostgreSQL. Free-form application
// fields live in a JSONB column; documents and notes are child tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application, docs []models.Document) error {
	fields, err := json.Marshal(app.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create application: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (id, reference_no, access_token, variant, fields, status, status_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, app.ID, app.ReferenceNo, app.AccessToken, string(app.Variant), fields, string(app.Status), app.StatusNote, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}

	for _, d := range docs {
		if err := upsertDocumentTx(ctx, tx, app.ID, d); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *PostgresStore) FindByAccessToken(ctx context.Context, accessToken string) (*models.Application, error) {
	return s.findBy(ctx, "access_token = $1", accessToken)
}

func (s *PostgresStore) FindByReference(ctx context.Context, referenceNo string) (*models.Application, error) {
	return s.findBy(ctx, "reference_no = $1", referenceNo)
}

func (s *PostgresStore) findBy(ctx context.Context, where string, arg any) (*models.Application, error) {
	query := `
		SELECT id, reference_no, access_token, variant, fields, status, status_note, created_at, updated_at
		FROM applications
		WHERE ` + where
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, note string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications SET status = $2, status_note = $3, updated_at = $4 WHERE id = $1
	`, id, string(status), note, updatedAt)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpsertDocument(ctx context.Context, doc models.Document) error {
	return upsertDocumentTx(ctx, s.db, doc.ApplicationID, doc)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertDocumentTx(ctx context.Context, db execer, applicationID uuid.UUID, d models.Document) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (application_id, type, label, locator, original_name, size, mandatory, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (application_id, type) DO UPDATE SET
			label = EXCLUDED.label,
			locator = EXCLUDED.locator,
			original_name = EXCLUDED.original_name,
			size = EXCLUDED.size,
			mandatory = EXCLUDED.mandatory,
			status = EXCLUDED.status,
			uploaded_at = EXCLUDED.uploaded_at
	`, applicationID, string(d.Type), d.Label, d.Locator, d.OriginalName, d.Size, d.Mandatory, string(d.Status), d.UploadedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT application_id, type, label, locator, original_name, size, mandatory, status, uploaded_at
		FROM documents
		WHERE application_id = $1
		ORDER BY type
	`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		var typ, status string
		var uploadedAt sql.NullTime
		if err := rows.Scan(&d.ApplicationID, &typ, &d.Label, &d.Locator, &d.OriginalName, &d.Size, &d.Mandatory, &status, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Type = catalog.DocumentType(typ)
		d.Status = models.DocumentStatus(status)
		if uploadedAt.Valid {
			d.UploadedAt = uploadedAt.Time
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Summary, error) {
	query := `
		SELECT a.id, a.reference_no, a.access_token, a.variant, a.fields, a.status, a.status_note, a.created_at, a.updated_at,
			COUNT(d.type) AS doc_count,
			COUNT(d.type) FILTER (WHERE d.status = 'deficient') AS deficient_count
		FROM applications a
		LEFT JOIN documents d ON d.application_id = a.id
		WHERE ($1 = '' OR a.status = $1)
		  AND ($2 = '' OR a.reference_no ILIKE '%' || $2 || '%' OR a.fields->>'company_name' ILIKE '%' || $2 || '%')
		GROUP BY a.id
		ORDER BY a.created_at DESC
		LIMIT $3 OFFSET $4
	`
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, query, string(f.Status), f.Search, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var row Summary
		var fields []byte
		var variant, status string
		if err := rows.Scan(
			&row.Application.ID, &row.Application.ReferenceNo, &row.Application.AccessToken,
			&variant, &fields, &status, &row.Application.StatusNote,
			&row.Application.CreatedAt, &row.Application.UpdatedAt,
			&row.DocumentCount, &row.DeficientCount,
		); err != nil {
			return nil, fmt.Errorf("scan application summary: %w", err)
		}
		if err := json.Unmarshal(fields, &row.Application.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		row.Application.Variant = catalog.Variant(variant)
		row.Application.Status = models.Status(status)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) AddNote(ctx context.Context, note models.Note) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, application_id, author, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, note.ID, note.ApplicationID, note.Author, note.Text, note.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, applicationID uuid.UUID) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, author, text, created_at
		FROM notes
		WHERE application_id = $1
		ORDER BY created_at DESC
	`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.ApplicationID, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

type applicationRow interface {
	Scan(dest ...any) error
}

func scanApplication(row applicationRow) (*models.Application, error) {
	var app models.Application
	var fields []byte
	var variant, status string
	if err := row.Scan(&app.ID, &app.ReferenceNo, &app.AccessToken, &variant, &fields, &status, &app.StatusNote, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &app.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	app.Variant = catalog.Variant(variant)
	app.Status = models.Status(status)
	return &app, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
