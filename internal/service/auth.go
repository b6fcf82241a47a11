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

	"kvgportal/internal/auth"
	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

const minPasswordLen = 12

// Session is a signed token together with its expiry.
type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResult is returned on successful admin login.
type LoginResult struct {
	Admin   *model.Admin `json:"admin"`
	Session Session      `json:"session"`
}

// AuthService authenticates dashboard users and issues access tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CreateAdmin(ctx context.Context, email, password string) (*model.Admin, error)
	// ApplicantSession issues the token that lets an applicant continue onboarding.
	ApplicantSession(applicantID string) (Session, error)
}

type authService struct {
	admins       repository.AdminRepository
	tokens       *auth.Tokens
	adminTTL     time.Duration
	applicantTTL time.Duration
	logger       *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(admins repository.AdminRepository, tokens *auth.Tokens, adminTTL, applicantTTL time.Duration, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{admins: admins, tokens: tokens, adminTTL: adminTTL, applicantTTL: applicantTTL, logger: logger}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("admin_login_failed", slog.String("reason", "unknown_email"))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := auth.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("admin_login_failed", slog.String("reason", "bad_password"), slog.String("admin_id", admin.ID))
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(admin.ID, auth.RoleAdmin, s.adminTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin_login", slog.String("admin_id", admin.ID))
	return &LoginResult{Admin: admin, Session: Session{Token: token, ExpiresAt: exp}}, nil
}

func (s *authService) CreateAdmin(ctx context.Context, email, password string) (*model.Admin, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.admins.Create(ctx, &model.Admin{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(addr.Address),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *authService) ApplicantSession(applicantID string) (Session, error) {
	if applicantID == "" {
		return Session{}, ErrIDRequired
	}
	token, exp, err := s.tokens.Issue(applicantID, auth.RoleApplicant, s.applicantTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}
