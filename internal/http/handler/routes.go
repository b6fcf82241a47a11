package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/auth"
	"kvgportal/internal/http/middleware"
	"kvgportal/internal/service"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB       *sql.DB
	Pingers  []Pinger
	Tokens   *auth.Tokens
	Cookies  CookieOptions
	Location *time.Location

	MaxUploadBytes      int64
	AnalyticsSessionTTL time.Duration
	LoginLimiter        *middleware.RateLimiter

	Applicants service.ApplicantService
	Documents  service.DocumentService
	Quotes     service.QuoteService
	Signatures service.SignatureService
	Analytics  service.AnalyticsService
	Auth       service.AuthService
}

// RegisterRoutes attaches all HTTP routes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB, d.Pingers...))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	// Public
	api.Post("/quotes", CompareQuotes(d.Quotes))
	api.Get("/regions/:plz", LookupRegion())
	api.Post("/applicants", middleware.NoStore(), CreateApplicant(d.Applicants, d.Auth, d.Cookies))
	api.Post("/analytics/events", TrackEvent(d.Analytics, d.Cookies, d.AnalyticsSessionTTL))
	api.Post("/signature/callback", SignatureCallback(d.Signatures))

	// Applicant onboarding, also reachable with an admin session.
	own := api.Group("/applicants/:id",
		middleware.NoStore(),
		middleware.RequireRole(d.Tokens, auth.RoleApplicant, auth.RoleAdmin),
		middleware.OwnApplicant("id"),
	)
	own.Get("", GetApplicant(d.Applicants))
	own.Put("", UpdateApplicant(d.Applicants))
	own.Get("/documents", ListDocuments(d.Documents))
	own.Post("/documents", UploadDocument(d.Documents, d.MaxUploadBytes))
	own.Post("/signature", StartSignature(d.Signatures))
	own.Get("/signature", SignatureStatus(d.Signatures))

	// Dashboard
	login := []fiber.Handler{}
	if d.LoginLimiter != nil {
		login = append(login, d.LoginLimiter.Handler())
	}
	login = append(login, AdminLogin(d.Auth, d.Cookies))
	api.Post("/admin/login", login...)
	api.Post("/admin/logout", AdminLogout(d.Cookies))

	admin := api.Group("/admin", middleware.NoStore(), middleware.RequireRole(d.Tokens, auth.RoleAdmin))
	admin.Get("/applicants", ListApplicants(d.Applicants))
	admin.Get("/applicants/:id", GetApplicantDetail(d.Applicants, d.Documents, d.Signatures))
	admin.Delete("/applicants/:id", DeleteApplicant(d.Applicants))
	admin.Get("/applicants/:id/combined", CombinedPDF(d.Documents))
	admin.Get("/documents/:id/download", DownloadDocument(d.Documents))
	admin.Delete("/documents/:id", DeleteDocument(d.Documents))
	admin.Get("/analytics", AnalyticsSummary(d.Analytics, d.Location))
}
