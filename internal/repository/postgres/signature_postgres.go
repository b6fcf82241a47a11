package postgres

import (
	"context"
	"database/sql"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

// SignaturePostgres is a PostgreSQL implementation of repository.SignatureRepository.
type SignaturePostgres struct {
	db *sql.DB
}

// NewSignaturePostgres creates a new SignaturePostgres repository.
func NewSignaturePostgres(db *sql.DB) *SignaturePostgres {
	return &SignaturePostgres{db: db}
}

var _ repository.SignatureRepository = (*SignaturePostgres)(nil)

const signatureColumns = `id, applicant_id, document_id, provider_id, signing_url, status, created_at, updated_at`

func scanSignature(row interface{ Scan(...any) error }) (*model.SignatureRequest, error) {
	var s model.SignatureRequest
	if err := row.Scan(
		&s.ID,
		&s.ApplicantID,
		&s.DocumentID,
		&s.ProviderID,
		&s.SigningURL,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a signature request.
func (r *SignaturePostgres) Create(ctx context.Context, s *model.SignatureRequest) (*model.SignatureRequest, error) {
	q := `
		INSERT INTO signature_requests (id, applicant_id, document_id, provider_id, signing_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + signatureColumns
	row := r.db.QueryRowContext(ctx, q,
		s.ID,
		s.ApplicantID,
		s.DocumentID,
		s.ProviderID,
		s.SigningURL,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return scanSignature(row)
}

// FindByProviderID looks a request up by the provider's identifier.
func (r *SignaturePostgres) FindByProviderID(ctx context.Context, providerID string) (*model.SignatureRequest, error) {
	q := `SELECT ` + signatureColumns + ` FROM signature_requests WHERE provider_id = $1`
	return scanSignature(r.db.QueryRowContext(ctx, q, providerID))
}

// LatestByApplicant returns the most recent request of an applicant.
func (r *SignaturePostgres) LatestByApplicant(ctx context.Context, applicantID string) (*model.SignatureRequest, error) {
	q := `SELECT ` + signatureColumns + ` FROM signature_requests
		WHERE applicant_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanSignature(r.db.QueryRowContext(ctx, q, applicantID))
}

// UpdateStatus sets the status of a request. Missing rows yield sql.ErrNoRows.
func (r *SignaturePostgres) UpdateStatus(ctx context.Context, id string, status model.SignatureStatus) error {
	const q = `UPDATE signature_requests SET status = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
