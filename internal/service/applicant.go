package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"kvgportal/internal/model"
	"kvgportal/internal/premium"
	"kvgportal/internal/region"
	"kvgportal/internal/repository"
	"kvgportal/internal/storage"
)

const birthDateLayout = "2006-01-02"

// ApplicantInput is the personal data and chosen offer submitted by the onboarding form.
type ApplicantInput struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	BirthDate       string  `json:"birth_date"` // YYYY-MM-DD
	PLZ             string  `json:"plz"`
	Franchise       int     `json:"franchise"`
	Accident        bool    `json:"accident"`
	Model           string  `json:"model"`
	CurrentInsurer  string  `json:"current_insurer"`
	SelectedInsurer string  `json:"selected_insurer"`
	SelectedPremium float64 `json:"selected_premium"`
}

// ApplicantListQuery narrows the admin list.
type ApplicantListQuery struct {
	Limit  int
	Offset int
	Search string
	Status string
}

// ApplicantListResult is the service-level DTO for paginated applicants.
type ApplicantListResult struct {
	Items []model.Applicant `json:"data"`
	Total int               `json:"total"`
}

// ApplicantService manages applicant records.
type ApplicantService interface {
	Create(ctx context.Context, in ApplicantInput) (*model.Applicant, error)
	Get(ctx context.Context, id string) (*model.Applicant, error)
	// Update replaces personal data and the chosen offer. Only draft and
	// documents_uploaded applicants can be changed.
	Update(ctx context.Context, id string, in ApplicantInput) (*model.Applicant, error)
	List(ctx context.Context, q ApplicantListQuery) (*ApplicantListResult, error)
	// Delete removes the applicant and every stored object that belongs to it.
	Delete(ctx context.Context, id string) error
}

type applicantService struct {
	repo   repository.ApplicantRepository
	docs   repository.DocumentRepository
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewApplicantService constructs a new ApplicantService.
func NewApplicantService(repo repository.ApplicantRepository, docs repository.DocumentRepository, store storage.Storage, logger *slog.Logger) ApplicantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &applicantService{repo: repo, docs: docs, store: store, logger: logger, now: time.Now}
}

func (s *applicantService) Create(ctx context.Context, in ApplicantInput) (*model.Applicant, error) {
	a, err := s.build(in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a.ID = uuid.New().String()
	a.Status = model.StatusDraft
	a.CreatedAt = now
	a.UpdatedAt = now

	stored, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create applicant: %w", err)
	}
	return stored, nil
}

func (s *applicantService) Get(ctx context.Context, id string) (*model.Applicant, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *applicantService) Update(ctx context.Context, id string, in ApplicantInput) (*model.Applicant, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Editable() {
		return nil, ErrNotEditable
	}
	a, err := s.build(in)
	if err != nil {
		return nil, err
	}
	a.ID = id

	updated, err := s.repo.Update(ctx, a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update applicant: %w", err)
	}
	return updated, nil
}

func (s *applicantService) List(ctx context.Context, q ApplicantListQuery) (*ApplicantListResult, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	status := model.ApplicantStatus(q.Status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, q.Status)
	}

	res, err := s.repo.List(ctx, repository.ApplicantFilter{
		PageQuery: repository.PageQuery{Limit: q.Limit, Offset: q.Offset},
		Search:    q.Search,
		Status:    status,
	})
	if err != nil {
		return nil, err
	}
	return &ApplicantListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *applicantService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	docs, err := s.docs.ListByApplicant(ctx, id)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	// Objects go first; rows cascade with the applicant.
	for _, d := range docs {
		if err := s.store.Delete(ctx, d.StoragePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	// Sweeps objects left behind by failed upload rollbacks.
	orphans, err := s.store.DeletePrefix(ctx, "applicants/"+id+"/")
	if err != nil {
		return fmt.Errorf("delete storage prefix: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete applicant: %w", err)
	}
	s.logger.Info("applicant_deleted",
		slog.String("applicant_id", id),
		slog.Int("documents", len(docs)),
		slog.Int("orphans", orphans),
	)
	return nil
}

// build validates in and resolves the derived fields.
func (s *applicantService) build(in ApplicantInput) (*model.Applicant, error) {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	birth, err := time.Parse(birthDateLayout, strings.TrimSpace(in.BirthDate))
	if err != nil {
		return nil, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	group, err := premium.GroupFor(birth, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := premium.ValidateFranchise(group, in.Franchise); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	m, err := premium.ParseModel(in.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	reg, err := region.Lookup(in.PLZ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.SelectedPremium < 0 {
		return nil, fmt.Errorf("%w: selected_premium must not be negative", ErrInvalidInput)
	}

	return &model.Applicant{
		FirstName:       first,
		LastName:        last,
		Email:           strings.ToLower(addr.Address),
		Phone:           strings.TrimSpace(in.Phone),
		BirthDate:       birth,
		PLZ:             reg.PLZ,
		Canton:          reg.Canton,
		Franchise:       in.Franchise,
		Accident:        in.Accident,
		Model:           string(m),
		CurrentInsurer:  strings.TrimSpace(in.CurrentInsurer),
		SelectedInsurer: strings.TrimSpace(in.SelectedInsurer),
		SelectedPremium: in.SelectedPremium,
	}, nil
}
