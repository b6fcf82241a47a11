package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kvgportal/internal/auth"
	"kvgportal/internal/http/middleware"
	"kvgportal/internal/model"
	"kvgportal/internal/service"
	serviceMocks "kvgportal/internal/service/mocks"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	var redisErr error
	app := fiber.New()
	app.Get("/health", HealthCheck(db, pingFunc(func(context.Context) error { return redisErr })))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("database down", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("redis down", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)
		redisErr = errors.New("connection refused")
		defer func() { redisErr = nil }()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCompareQuotes(t *testing.T) {
	mockSvc := new(serviceMocks.MockQuoteService)
	app := fiber.New()
	app.Post("/quotes", CompareQuotes(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Compare", mock.Anything, service.QuoteInput{PLZ: "8004", BirthDate: "1985-06-01", Franchise: 300}).
			Return(&service.Comparison{Premiums: []service.Offer{{AnnualPremium: 4215}}}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(`{"plz":"8004","birth_date":"1985-06-01","franchise":300}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Compare", mock.Anything, mock.Anything).
			Return(nil, errors.Join(service.ErrInvalidInput, errors.New("plz must be four digits"))).Once()

		req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(`{"plz":"80"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Error.Code)
	})

	t.Run("upstream down", func(t *testing.T) {
		mockSvc.On("Compare", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
	})
}

func TestLookupRegion(t *testing.T) {
	app := fiber.New()
	app.Get("/regions/:plz", LookupRegion())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/regions/8004", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "ZH", body["canton"])

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/regions/80x4", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/regions/5900", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateApplicant(t *testing.T) {
	mockSvc := new(serviceMocks.MockApplicantService)
	mockAuth := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/applicants", CreateApplicant(mockSvc, mockAuth, CookieOptions{Secure: true}))

	t.Run("success sets session cookie", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.ApplicantInput) bool {
			return in.FirstName == "Anna" && in.PLZ == "8004"
		})).Return(&model.Applicant{ID: id, Status: model.StatusDraft}, nil).Once()
		mockAuth.On("ApplicantSession", id).Return(service.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/applicants", strings.NewReader(`{"first_name":"Anna","plz":"8004"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		cookie := resp.Header.Get("Set-Cookie")
		assert.Contains(t, cookie, middleware.ApplicantCookie+"=tok")
		assert.Contains(t, strings.ToLower(cookie), "httponly")
		assert.Contains(t, strings.ToLower(cookie), "secure")

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.NotContains(t, body["session"], "token")
		mockSvc.AssertExpectations(t)
		mockAuth.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/applicants", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
}

func TestGetApplicant(t *testing.T) {
	mockSvc := new(serviceMocks.MockApplicantService)
	app := fiber.New()
	app.Get("/applicants/:id", GetApplicant(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Applicant{ID: id}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/applicants/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Applicant
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/applicants/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/applicants/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestUpdateApplicant_NotEditable(t *testing.T) {
	mockSvc := new(serviceMocks.MockApplicantService)
	app := fiber.New()
	app.Put("/applicants/:id", UpdateApplicant(mockSvc))

	id := uuid.New().String()
	mockSvc.On("Update", mock.Anything, id, mock.Anything).Return(nil, service.ErrNotEditable).Once()

	req := httptest.NewRequest(http.MethodPut, "/applicants/"+id, strings.NewReader(`{"first_name":"Anna"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_EDITABLE", decodeError(t, resp).Error.Code)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	tokens, err := auth.NewTokens("routing-test-secret-0123456789abcd")
	require.NoError(t, err)
	mockApplicants := new(serviceMocks.MockApplicantService)

	RegisterRoutes(app, Deps{
		Tokens:     tokens,
		Applicants: mockApplicants,
		Documents:  new(serviceMocks.MockDocumentService),
		Quotes:     new(serviceMocks.MockQuoteService),
		Signatures: new(serviceMocks.MockSignatureService),
		Analytics:  new(serviceMocks.MockAnalyticsService),
		Auth:       new(serviceMocks.MockAuthService),
	})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/healthz", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("admin routes need a session", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/applicants", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("applicant cannot open another record", func(t *testing.T) {
		tok, _, err := tokens.Issue(uuid.New().String(), auth.RoleApplicant, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/applicants/"+uuid.New().String(), nil)
		req.Header.Set("Cookie", middleware.ApplicantCookie+"="+tok)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
	})

	t.Run("applicant opens own record", func(t *testing.T) {
		id := uuid.New().String()
		tok, _, err := tokens.Issue(id, auth.RoleApplicant, time.Hour)
		require.NoError(t, err)
		mockApplicants.On("Get", mock.Anything, id).Return(&model.Applicant{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/applicants/"+id, nil)
		req.Header.Set("Cookie", middleware.ApplicantCookie+"="+tok)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("admin lists applicants", func(t *testing.T) {
		tok, _, err := tokens.Issue("adm-1", auth.RoleAdmin, time.Hour)
		require.NoError(t, err)
		mockApplicants.On("List", mock.Anything, service.ApplicantListQuery{Limit: 10}).
			Return(&service.ApplicantListResult{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/admin/applicants", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, []any{}, body["data"])
	})
}
