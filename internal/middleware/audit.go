package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// RequestID tags every request with a UUID in the X-Request-ID header.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Generator: uuid.NewString,
	})
}

// AuditMiddleware records every request through writer. Writes happen off the
// request goroutine; failures are logged and never affect the response.
func AuditMiddleware(writer port.AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")
		reqID := requestid.FromContext(c)

		err := c.Next()

		details := map[string]interface{}{
			"method":      method,
			"path":        path,
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		detailsJSON, _ := json.Marshal(details)

		entry := &domain.AuditLog{
			RequestID:  reqID,
			Action:     actionFor(method, path),
			Resource:   "api",
			ResourceID: path,
			Details:    string(detailsJSON),
			IP:         ip,
			UserAgent:  userAgent,
			CreatedAt:  start,
		}

		// all values are captured, safe to use in goroutine
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if writeErr := writer.WriteAudit(ctx, entry); writeErr != nil {
				slog.Error("failed to write audit log", "request_id", reqID, "error", writeErr)
			}
		}()

		return err
	}
}

func actionFor(method, path string) string {
	switch {
	case method == fiber.MethodPost && strings.HasSuffix(path, "/ask"):
		return domain.AuditActionAsk
	case method == fiber.MethodGet && strings.HasSuffix(path, "/docs"):
		return domain.AuditActionCatalog
	}
	return domain.AuditActionRequest
}
