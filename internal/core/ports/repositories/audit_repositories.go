package repositories

import (
	"context"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
)

// AuditRepository is the sink and query surface for audit entries.
type AuditRepository interface {
	// SaveAuditEntry persists a single audit entry.
	SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error

	// FindAuditEntries retrieves entries for an entity, newest first.
	FindAuditEntries(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error)
}
