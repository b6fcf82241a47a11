package postgres

import (
	"context"
	"database/sql"
	"strings"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

// AdminPostgres is a PostgreSQL implementation of repository.AdminRepository.
type AdminPostgres struct {
	db *sql.DB
}

// NewAdminPostgres creates a new AdminPostgres repository.
func NewAdminPostgres(db *sql.DB) *AdminPostgres {
	return &AdminPostgres{db: db}
}

var _ repository.AdminRepository = (*AdminPostgres)(nil)

// Create inserts an admin. Emails are stored lower-cased.
func (r *AdminPostgres) Create(ctx context.Context, a *model.Admin) (*model.Admin, error) {
	const q = `
		INSERT INTO admins (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, created_at
	`
	var out model.Admin
	if err := r.db.QueryRowContext(ctx, q, a.ID, strings.ToLower(a.Email), a.PasswordHash, a.CreatedAt).
		Scan(&out.ID, &out.Email, &out.PasswordHash, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByEmail fetches an admin by case-insensitive email.
func (r *AdminPostgres) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	const q = `SELECT id, email, password_hash, created_at FROM admins WHERE email = $1`
	var out model.Admin
	if err := r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(email))).
		Scan(&out.ID, &out.Email, &out.PasswordHash, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
