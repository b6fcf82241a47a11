// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) and contain no business
// logic. Missing rows surface as sql.ErrNoRows for the service layer to map.
package repository

import (
	"context"
	"time"

	"kvgportal/internal/model"
)

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// ApplicantFilter narrows the admin applicant list.
type ApplicantFilter struct {
	PageQuery
	// Search matches case-insensitively on first name, last name or email.
	Search string
	Status model.ApplicantStatus
}

// ApplicantRepository persists applicant records.
type ApplicantRepository interface {
	Create(ctx context.Context, a *model.Applicant) (*model.Applicant, error)
	FindByID(ctx context.Context, id string) (*model.Applicant, error)
	// Update writes personal data and the selected offer; status is untouched.
	Update(ctx context.Context, a *model.Applicant) (*model.Applicant, error)
	// TransitionStatus sets status to `to` only if it currently equals `from`.
	// It returns sql.ErrNoRows when no row matched.
	TransitionStatus(ctx context.Context, id string, from, to model.ApplicantStatus) error
	List(ctx context.Context, f ApplicantFilter) (*PageResult[model.Applicant], error)
	Delete(ctx context.Context, id string) error
}

// DocumentRepository defines data access for documents.
type DocumentRepository interface {
	// Upsert stores doc, replacing any previous document of the same applicant and kind.
	Upsert(ctx context.Context, doc *model.Document) (*model.Document, error)
	FindByID(ctx context.Context, id string) (*model.Document, error)
	FindByKind(ctx context.Context, applicantID string, kind model.DocumentKind) (*model.Document, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]model.Document, error)
	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// SignatureRepository persists e-signature requests.
type SignatureRepository interface {
	Create(ctx context.Context, r *model.SignatureRequest) (*model.SignatureRequest, error)
	FindByProviderID(ctx context.Context, providerID string) (*model.SignatureRequest, error)
	LatestByApplicant(ctx context.Context, applicantID string) (*model.SignatureRequest, error)
	UpdateStatus(ctx context.Context, id string, status model.SignatureStatus) error
}

// PageViewRepository stores analytics beacons and aggregates them.
type PageViewRepository interface {
	Insert(ctx context.Context, pv *model.PageView) error
	Summary(ctx context.Context, from, to time.Time, topPaths int) (*model.AnalyticsSummary, error)
}

// AdminRepository stores dashboard users.
type AdminRepository interface {
	Create(ctx context.Context, a *model.Admin) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
}
