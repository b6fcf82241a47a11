package middleware

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"kvgportal/internal/logger"
)

// Logger writes one JSON access log line per request to stdout, timestamped in UTC.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter is Logger with an explicit sink and timezone for the ts field.
// Lines go through the same slog JSON handler as application logs.
//
// Fields: ts (request start), request_id, method, path, status, latency
// (milliseconds), and trace_id when the request is sampled.
// Query strings are never logged; search terms and tokens may travel there.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	h := logger.New(w, "info", loc).Handler()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		rec := slog.NewRecord(start, slog.LevelInfo, "http_request", 0)
		rec.AddAttrs(
			slog.String("request_id", rid),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", statusOf(c, err)),
			slog.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		)
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			rec.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
		}
		_ = h.Handle(c.UserContext(), rec)

		return err
	}
}

// statusOf is the status the error handler will send for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
