package port

import (
	"context"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
)

// IndexSource yields the loaded vector index. Repeated calls return the same
// immutable value.
type IndexSource interface {
	Load(ctx context.Context) (*domain.VectorIndex, error)
}

// IndexWriter persists a freshly built index.
type IndexWriter interface {
	Save(ctx context.Context, idx *domain.VectorIndex) error
}

// RawSource yields the raw records to ingest.
type RawSource interface {
	ReadAll(ctx context.Context) ([]domain.RawDocument, error)
}

// AuditWriter persists audit entries.
type AuditWriter interface {
	WriteAudit(ctx context.Context, log *domain.AuditLog) error
}

// AuditReader lists persisted audit entries, newest first.
type AuditReader interface {
	ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)
}
