package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/http/middleware"
	"kvgportal/internal/pdf"
	"kvgportal/internal/pricing"
	"kvgportal/internal/service"
	"kvgportal/internal/signature"
	"kvgportal/internal/upload"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response. message must be safe
// to show to clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates service and validation errors into responses.
// Anything unrecognised is logged and answered with a generic 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrInvalidInput):
		return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrNotEditable):
		return writeError(c, fiber.StatusConflict, "NOT_EDITABLE", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return writeError(c, fiber.StatusConflict, "INVALID_STATUS", err.Error())
	case errors.Is(err, service.ErrDocumentsMissing):
		return writeError(c, fiber.StatusConflict, "DOCUMENTS_MISSING", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, service.ErrInvalidSignature):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_SIGNATURE", err.Error())
	case errors.Is(err, upload.ErrTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrTypeMismatch):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_FILE", err.Error())
	case errors.Is(err, upload.ErrEmpty), errors.Is(err, upload.ErrInvalidDataURL), errors.Is(err, upload.ErrInvalidName):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	case errors.Is(err, pdf.ErrUnsupportedType):
		return writeError(c, fiber.StatusUnprocessableEntity, "UNSUPPORTED_FILE", err.Error())
	case errors.Is(err, pricing.ErrUpstream), errors.Is(err, signature.ErrUpstream):
		slog.Default().Error("upstream_failed",
			slog.String("request_id", requestIDFromCtx(c)),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "upstream service unavailable")
	default:
		slog.Default().Error("request_failed",
			slog.String("request_id", requestIDFromCtx(c)),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", "access denied")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			if status >= 500 {
				slog.Default().Error("unhandled_error",
					slog.String("request_id", requestIDFromCtx(c)),
					slog.String("error", err.Error()),
				)
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
