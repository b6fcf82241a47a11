package handler

import (
	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/region"
	"kvgportal/internal/service"
)

// CompareQuotes godoc
// @Summary Compare premiums
// @Tags quotes
// @Accept json
// @Produce json
// @Param body body service.QuoteInput true "Comparison form"
// @Success 200 {object} service.Comparison
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/quotes [post]
func CompareQuotes(svc service.QuoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.QuoteInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Compare(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// LookupRegion godoc
// @Summary Resolve a postal code
// @Tags quotes
// @Produce json
// @Param plz path string true "Swiss postal code"
// @Success 200 {object} region.Region
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/regions/{plz} [get]
func LookupRegion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := region.Lookup(c.Params("plz"))
		switch err {
		case nil:
			return c.JSON(r)
		case region.ErrUnknownPLZ:
			return writeError(c, fiber.StatusNotFound, "UNKNOWN_PLZ", err.Error())
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_PLZ", err.Error())
		}
	}
}
