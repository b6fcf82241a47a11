package handler

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/service"
)

// SessionCookie holds the analytics session id between beacons.
const SessionCookie = "kvg_sid"

const summaryDateLayout = "2006-01-02"

// TrackEvent godoc
// @Summary Record a page view beacon
// @Description Accepts application/json or text/plain (navigator.sendBeacon) bodies.
// @Tags analytics
// @Accept json
// @Accept plain
// @Param body body service.Event true "Beacon"
// @Success 204
// @Failure 400 {object} errorPayload
// @Router /api/analytics/events [post]
func TrackEvent(svc service.AnalyticsService, cookies CookieOptions, sessionTTL time.Duration) fiber.Handler {
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return func(c *fiber.Ctx) error {
		var ev service.Event
		// sendBeacon posts text/plain, so the body is decoded regardless of Content-Type.
		if err := json.Unmarshal(c.Body(), &ev); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if ev.SessionID == "" {
			ev.SessionID = c.Cookies(SessionCookie)
		}
		ev.UserAgent = c.Get(fiber.HeaderUserAgent)

		pv, err := svc.Track(c.UserContext(), ev)
		if err != nil {
			return writeServiceError(c, err)
		}
		cookies.set(c, SessionCookie, pv.SessionID, "/", time.Now().Add(sessionTTL), fiber.CookieSameSiteLaxMode)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AnalyticsSummary godoc
// @Summary Page view summary
// @Tags admin
// @Produce json
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day (inclusive), YYYY-MM-DD"
// @Success 200 {object} model.AnalyticsSummary
// @Failure 400 {object} errorPayload
// @Router /api/admin/analytics [get]
func AnalyticsSummary(svc service.AnalyticsService, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	return func(c *fiber.Ctx) error {
		var from, to time.Time
		if v := c.Query("from"); v != "" {
			t, err := time.ParseInLocation(summaryDateLayout, v, loc)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FROM", "from must be YYYY-MM-DD")
			}
			from = t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.ParseInLocation(summaryDateLayout, v, loc)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TO", "to must be YYYY-MM-DD")
			}
			to = t.AddDate(0, 0, 1)
		}
		res, err := svc.Summary(c.UserContext(), from, to)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
