package handler

import (
	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/http/middleware"
	"kvgportal/internal/model"
	"kvgportal/internal/service"
)

type createApplicantResponse struct {
	Applicant *model.Applicant `json:"applicant"`
	Session   service.Session  `json:"session"`
}

// CreateApplicant godoc
// @Summary Start onboarding
// @Description Creates a draft applicant and sets the kvg_applicant session cookie.
// @Tags applicants
// @Accept json
// @Produce json
// @Param body body service.ApplicantInput true "Personal data and chosen offer"
// @Success 201 {object} createApplicantResponse
// @Failure 400 {object} errorPayload
// @Router /api/applicants [post]
func CreateApplicant(svc service.ApplicantService, authSvc service.AuthService, cookies CookieOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ApplicantInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		a, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		sess, err := authSvc.ApplicantSession(a.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		cookies.set(c, middleware.ApplicantCookie, sess.Token, "/api", sess.ExpiresAt, fiber.CookieSameSiteLaxMode)
		return c.Status(fiber.StatusCreated).JSON(createApplicantResponse{Applicant: a, Session: sess})
	}
}

// GetApplicant godoc
// @Summary Get an applicant
// @Tags applicants
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} model.Applicant
// @Failure 404 {object} errorPayload
// @Router /api/applicants/{id} [get]
func GetApplicant(svc service.ApplicantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		a, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(a)
	}
}

// UpdateApplicant godoc
// @Summary Update personal data
// @Description Allowed until the signing round starts.
// @Tags applicants
// @Accept json
// @Produce json
// @Param id path string true "Applicant ID"
// @Param body body service.ApplicantInput true "Personal data and chosen offer"
// @Success 200 {object} model.Applicant
// @Failure 409 {object} errorPayload
// @Router /api/applicants/{id} [put]
func UpdateApplicant(svc service.ApplicantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		var in service.ApplicantInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		a, err := svc.Update(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(a)
	}
}
