package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

// ApplicantPostgres is a PostgreSQL implementation of repository.ApplicantRepository.
type ApplicantPostgres struct {
	db *sql.DB
}

// NewApplicantPostgres creates a new ApplicantPostgres repository.
func NewApplicantPostgres(db *sql.DB) *ApplicantPostgres {
	return &ApplicantPostgres{db: db}
}

var _ repository.ApplicantRepository = (*ApplicantPostgres)(nil)

const applicantColumns = `id, first_name, last_name, email, phone, birth_date, plz, canton, franchise, accident,
		model, current_insurer, selected_insurer, selected_premium, status, created_at, updated_at`

func scanApplicant(row interface{ Scan(...any) error }) (*model.Applicant, error) {
	var a model.Applicant
	if err := row.Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.Phone,
		&a.BirthDate,
		&a.PLZ,
		&a.Canton,
		&a.Franchise,
		&a.Accident,
		&a.Model,
		&a.CurrentInsurer,
		&a.SelectedInsurer,
		&a.SelectedPremium,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new applicant row and returns the stored record.
func (r *ApplicantPostgres) Create(ctx context.Context, a *model.Applicant) (*model.Applicant, error) {
	q := `
		INSERT INTO applicants (id, first_name, last_name, email, phone, birth_date, plz, canton, franchise,
			accident, model, current_insurer, selected_insurer, selected_premium, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + applicantColumns
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.FirstName,
		a.LastName,
		a.Email,
		a.Phone,
		a.BirthDate,
		a.PLZ,
		a.Canton,
		a.Franchise,
		a.Accident,
		a.Model,
		a.CurrentInsurer,
		a.SelectedInsurer,
		a.SelectedPremium,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return scanApplicant(row)
}

// FindByID fetches a single applicant by its ID.
func (r *ApplicantPostgres) FindByID(ctx context.Context, id string) (*model.Applicant, error) {
	q := `SELECT ` + applicantColumns + ` FROM applicants WHERE id = $1`
	return scanApplicant(r.db.QueryRowContext(ctx, q, id))
}

// Update writes the editable fields and bumps updated_at.
func (r *ApplicantPostgres) Update(ctx context.Context, a *model.Applicant) (*model.Applicant, error) {
	q := `
		UPDATE applicants SET
			first_name = $2, last_name = $3, email = $4, phone = $5, birth_date = $6, plz = $7, canton = $8,
			franchise = $9, accident = $10, model = $11, current_insurer = $12, selected_insurer = $13,
			selected_premium = $14, updated_at = now()
		WHERE id = $1
		RETURNING ` + applicantColumns
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.FirstName,
		a.LastName,
		a.Email,
		a.Phone,
		a.BirthDate,
		a.PLZ,
		a.Canton,
		a.Franchise,
		a.Accident,
		a.Model,
		a.CurrentInsurer,
		a.SelectedInsurer,
		a.SelectedPremium,
	)
	return scanApplicant(row)
}

// TransitionStatus performs a compare-and-set on the status column.
func (r *ApplicantPostgres) TransitionStatus(ctx context.Context, id string, from, to model.ApplicantStatus) error {
	const q = `UPDATE applicants SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, q, id, from, to)
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

// List returns applicants newest first with LIMIT/OFFSET pagination and a total count.
func (r *ApplicantPostgres) List(ctx context.Context, f repository.ApplicantFilter) (*repository.PageResult[model.Applicant], error) {
	where, args := applicantWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicants`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	n := len(args)
	qList := `SELECT ` + applicantColumns + ` FROM applicants` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, qList, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Applicant, 0)
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Applicant]{
		Items: items,
		Total: total,
	}, nil
}

func applicantWhere(f repository.ApplicantFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, "(lower(first_name) LIKE "+p+" OR lower(last_name) LIKE "+p+" OR lower(email) LIKE "+p+")")
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Delete removes an applicant; documents and signature requests cascade.
func (r *ApplicantPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM applicants WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
