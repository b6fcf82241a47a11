package postgres

import (
	"context"
	"database/sql"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, applicant_id, kind, filename, original_filename, storage_path, size, content_type, created_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.ApplicantID,
		&d.Kind,
		&d.Filename,
		&d.OriginalFilename,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Upsert inserts doc or replaces the row holding the same applicant and kind.
func (r *DocumentPostgres) Upsert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, applicant_id, kind, filename, original_filename, storage_path, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (applicant_id, kind) DO UPDATE SET
			id = EXCLUDED.id,
			filename = EXCLUDED.filename,
			original_filename = EXCLUDED.original_filename,
			storage_path = EXCLUDED.storage_path,
			size = EXCLUDED.size,
			content_type = EXCLUDED.content_type,
			created_at = EXCLUDED.created_at
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ApplicantID,
		doc.Kind,
		doc.Filename,
		doc.OriginalFilename,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByKind fetches the applicant's document of the given kind.
func (r *DocumentPostgres) FindByKind(ctx context.Context, applicantID string, kind model.DocumentKind) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE applicant_id = $1 AND kind = $2`
	return scanDocument(r.db.QueryRowContext(ctx, q, applicantID, kind))
}

// ListByApplicant returns all documents of an applicant, oldest first.
func (r *DocumentPostgres) ListByApplicant(ctx context.Context, applicantID string) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE applicant_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, applicantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
