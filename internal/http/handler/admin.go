package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/http/middleware"
	"kvgportal/internal/model"
	"kvgportal/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type applicantDetail struct {
	Applicant *model.Applicant        `json:"applicant"`
	Documents []model.Document        `json:"documents"`
	Signature *model.SignatureRequest `json:"signature,omitempty"`
}

// AdminLogin godoc
// @Summary Dashboard login
// @Description Sets the kvg_admin session cookie. Rate limited per client IP.
// @Tags admin
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Router /api/admin/login [post]
func AdminLogin(svc service.AuthService, cookies CookieOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body loginRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		cookies.set(c, middleware.AdminCookie, res.Session.Token, "/api", res.Session.ExpiresAt, fiber.CookieSameSiteStrictMode)
		return c.JSON(res)
	}
}

// AdminLogout godoc
// @Summary Dashboard logout
// @Tags admin
// @Success 204
// @Router /api/admin/logout [post]
func AdminLogout(cookies CookieOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookies.clear(c, middleware.AdminCookie, "/api")
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListApplicants godoc
// @Summary List applicants
// @Tags admin
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param q query string false "Search in name and email"
// @Param status query string false "Status filter"
// @Success 200 {object} service.ApplicantListResult
// @Router /api/admin/applicants [get]
func ListApplicants(svc service.ApplicantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, ok := intQuery(c, "limit", 10)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, ok := intQuery(c, "offset", 0)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.List(c.UserContext(), service.ApplicantListQuery{
			Limit:  limit,
			Offset: offset,
			Search: c.Query("q"),
			Status: c.Query("status"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		if res.Items == nil {
			res.Items = []model.Applicant{}
		}
		return c.JSON(res)
	}
}

// GetApplicantDetail godoc
// @Summary Applicant with documents and signing state
// @Tags admin
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} applicantDetail
// @Failure 404 {object} errorPayload
// @Router /api/admin/applicants/{id} [get]
func GetApplicantDetail(applicants service.ApplicantService, docs service.DocumentService, signatures service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		ctx := c.UserContext()
		a, err := applicants.Get(ctx, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		list, err := docs.List(ctx, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if list == nil {
			list = []model.Document{}
		}
		sig, err := signatures.Status(ctx, id)
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			return writeServiceError(c, err)
		}
		return c.JSON(applicantDetail{Applicant: a, Documents: list, Signature: sig})
	}
}

// DeleteApplicant godoc
// @Summary Delete an applicant and all stored documents
// @Tags admin
// @Param id path string true "Applicant ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/admin/applicants/{id} [delete]
func DeleteApplicant(svc service.ApplicantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
