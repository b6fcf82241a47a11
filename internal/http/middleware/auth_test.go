package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvgportal/internal/auth"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens("middleware-test-secret-0123456789")
	require.NoError(t, err)
	return tokens
}

func issue(t *testing.T, tokens *auth.Tokens, sub, role string) string {
	t.Helper()
	tok, _, err := tokens.Issue(sub, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRequireRole(t *testing.T) {
	tokens := newTokens(t)

	app := fiber.New()
	app.Get("/admin", RequireRole(tokens, auth.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString(Claims(c).Subject)
	})
	app.Get("/applicants/:id", RequireRole(tokens, auth.RoleAdmin, auth.RoleApplicant), OwnApplicant("id"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/admin", nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bearer admin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "adm-1", auth.RoleAdmin))
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("admin cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Cookie", AdminCookie+"="+issue(t, tokens, "adm-1", auth.RoleAdmin))
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("applicant token on admin route", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "app-1", auth.RoleApplicant))
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("applicant reads own record", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/applicants/app-1", nil)
		req.Header.Set("Cookie", ApplicantCookie+"="+issue(t, tokens, "app-1", auth.RoleApplicant))
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("applicant reads foreign record", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/applicants/app-2", nil)
		req.Header.Set("Cookie", ApplicantCookie+"="+issue(t, tokens, "app-1", auth.RoleApplicant))
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin reads any record", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/applicants/app-2", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "adm-1", auth.RoleAdmin))
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
