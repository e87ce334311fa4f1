package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/google/uuid"
)

type auditService struct {
	auditRepo portsrepo.AuditRepository
}

// NewAuditService creates a new audit service.
func NewAuditService(auditRepo portsrepo.AuditRepository) portssvc.AuditSvcFacade {
	return &auditService{auditRepo: auditRepo}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// Log records an audit entry. Audit is a secondary record: serialization or
// persistence failures are logged and never surface to the caller.
func (s *auditService) Log(ctx context.Context, entityType, entityID string, action domain.AuditAction, changes any) {
	logger := middleware.GetLoggerFromCtx(ctx)

	payload, err := json.Marshal(changes)
	if err != nil {
		logger.Error("Failed to serialize audit changes",
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()))
		payload = []byte("{}")
	}

	now := time.Now()
	entry := domain.AuditEntry{
		AuditID:    uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    string(payload),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.auditRepo.SaveAuditEntry(ctx, entry); err != nil {
		logger.Error("Failed to save audit entry",
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
	}
}

// Find retrieves audit entries for an entity, newest first.
func (s *auditService) Find(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	entries, err := s.auditRepo.FindAuditEntries(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to find audit entries for %s %s: %w", entityType, entityID, err)
	}
	if entries == nil {
		return []domain.AuditEntry{}, nil
	}
	return entries, nil
}
