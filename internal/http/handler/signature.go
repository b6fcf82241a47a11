package handler

import (
	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/service"
	"kvgportal/internal/signature"
)

// StartSignature godoc
// @Summary Start the QES signing round
// @Tags signature
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 201 {object} model.SignatureRequest
// @Failure 409 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/applicants/{id}/signature [post]
func StartSignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		req, err := svc.Start(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

// SignatureStatus godoc
// @Summary Latest signing request
// @Tags signature
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {object} model.SignatureRequest
// @Failure 404 {object} errorPayload
// @Router /api/applicants/{id}/signature [get]
func SignatureStatus(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		req, err := svc.Status(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}

// SignatureCallback godoc
// @Summary Provider status notification
// @Description Body must be signed with the shared secret in X-Signature (sha256=<hex>).
// @Tags signature
// @Accept json
// @Param X-Signature header string true "HMAC-SHA256 of the body"
// @Success 204
// @Failure 401 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/signature/callback [post]
func SignatureCallback(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// fasthttp reuses the body buffer after the handler returns.
		body := append([]byte(nil), c.Body()...)
		if err := svc.HandleCallback(c.UserContext(), body, c.Get(signature.HeaderName)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
