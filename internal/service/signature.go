package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
	"kvgportal/internal/signature"
	"kvgportal/internal/storage"
)

// CallbackPayload is the provider's status notification.
type CallbackPayload struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// SignatureService runs the QES signing round of an applicant.
type SignatureService interface {
	// Start opens a signing request for the combined identity PDF and moves
	// the applicant to signature_pending.
	Start(ctx context.Context, applicantID string) (*model.SignatureRequest, error)
	// HandleCallback verifies and applies a provider notification.
	HandleCallback(ctx context.Context, body []byte, signatureHeader string) error
	// Status returns the latest request of an applicant.
	Status(ctx context.Context, applicantID string) (*model.SignatureRequest, error)
}

type signatureService struct {
	applicants    repository.ApplicantRepository
	requests      repository.SignatureRepository
	docs          DocumentService
	store         storage.Storage
	provider      signature.Provider
	webhookSecret string
	callbackURL   string
	logger        *slog.Logger
	now           func() time.Time
}

// NewSignatureService constructs a new SignatureService.
func NewSignatureService(
	applicants repository.ApplicantRepository,
	requests repository.SignatureRepository,
	docs DocumentService,
	store storage.Storage,
	provider signature.Provider,
	webhookSecret, callbackURL string,
	logger *slog.Logger,
) SignatureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &signatureService{
		applicants:    applicants,
		requests:      requests,
		docs:          docs,
		store:         store,
		provider:      provider,
		webhookSecret: webhookSecret,
		callbackURL:   callbackURL,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *signatureService) Start(ctx context.Context, applicantID string) (*model.SignatureRequest, error) {
	if applicantID == "" {
		return nil, ErrIDRequired
	}
	applicant, err := s.applicants.FindByID(ctx, applicantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if applicant.Status == model.StatusSignaturePending {
		// Repeated clicks get the open request back.
		latest, err := s.requests.LatestByApplicant(ctx, applicantID)
		if err == nil && latest.Status == model.SignaturePending {
			return latest, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	if !applicant.Status.CanTransition(model.StatusSignaturePending) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, applicant.Status, model.StatusSignaturePending)
	}

	doc, err := s.docs.Combined(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	content, _, err := storage.ReadAll(ctx, s.store, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("read combined pdf: %w", err)
	}

	resp, err := s.provider.CreateRequest(ctx, signature.SignRequest{
		Reference: applicantID,
		Filename:  doc.Filename,
		Document:  content,
		Signer: signature.Signer{
			FirstName: applicant.FirstName,
			LastName:  applicant.LastName,
			Email:     applicant.Email,
			Phone:     applicant.Phone,
		},
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req, err := s.requests.Create(ctx, &model.SignatureRequest{
		ID:          uuid.New().String(),
		ApplicantID: applicantID,
		DocumentID:  doc.ID,
		ProviderID:  resp.RequestID,
		SigningURL:  resp.SigningURL,
		Status:      model.SignaturePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("save signature request: %w", err)
	}

	if err := s.applicants.TransitionStatus(ctx, applicantID, applicant.Status, model.StatusSignaturePending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: applicant status changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update applicant status: %w", err)
	}

	s.logger.Info("signature_started",
		slog.String("applicant_id", applicantID),
		slog.String("provider_id", resp.RequestID),
	)
	return req, nil
}

func (s *signatureService) HandleCallback(ctx context.Context, body []byte, signatureHeader string) error {
	if err := signature.Verify(s.webhookSecret, body, signatureHeader); err != nil {
		return ErrInvalidSignature
	}

	var p CallbackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return fmt.Errorf("%w: malformed callback body", ErrInvalidInput)
	}
	status := model.SignatureStatus(strings.ToLower(strings.TrimSpace(p.Status)))
	switch status {
	case model.SignaturePending, model.SignatureSigned, model.SignatureDeclined, model.SignatureExpired:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, p.Status)
	}
	if p.RequestID == "" {
		return fmt.Errorf("%w: request_id is required", ErrInvalidInput)
	}

	req, err := s.requests.FindByProviderID(ctx, p.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	log := s.logger.With(
		slog.String("applicant_id", req.ApplicantID),
		slog.String("provider_id", req.ProviderID),
		slog.String("status", string(status)),
	)

	if req.Status == status {
		log.Info("signature_callback_duplicate")
		return nil
	}
	if req.Status.Final() {
		return fmt.Errorf("%w: request already %s", ErrInvalidTransition, req.Status)
	}
	if status == model.SignaturePending {
		return nil
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, status); err != nil {
		return fmt.Errorf("update signature request: %w", err)
	}

	next := model.StatusDeclined
	if status == model.SignatureSigned {
		next = model.StatusSigned
	}
	err = s.applicants.TransitionStatus(ctx, req.ApplicantID, model.StatusSignaturePending, next)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update applicant status: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("signature_callback_applicant_not_pending")
		return nil
	}

	log.Info("signature_callback_applied")
	return nil
}

func (s *signatureService) Status(ctx context.Context, applicantID string) (*model.SignatureRequest, error) {
	if applicantID == "" {
		return nil, ErrIDRequired
	}
	req, err := s.requests.LatestByApplicant(ctx, applicantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}
