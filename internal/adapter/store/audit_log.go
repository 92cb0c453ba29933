package store

import (
	"context"
	"log/slog"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// LogAuditWriter writes audit entries to a structured logger. It is used when
// no database is configured.
type LogAuditWriter struct {
	logger *slog.Logger
}

var _ port.AuditWriter = (*LogAuditWriter)(nil)

// NewLogAuditWriter returns a writer logging through logger, or slog.Default when nil.
func NewLogAuditWriter(logger *slog.Logger) *LogAuditWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAuditWriter{logger: logger}
}

func (w *LogAuditWriter) WriteAudit(ctx context.Context, l *domain.AuditLog) error {
	w.logger.InfoContext(ctx, "audit",
		"request_id", l.RequestID,
		"action", l.Action,
		"resource", l.Resource,
		"resource_id", l.ResourceID,
		"details", l.Details,
		"ip", l.IP,
		"user_agent", l.UserAgent,
	)
	return nil
}
