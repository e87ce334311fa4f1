package pgsql

import (
	"context"

	"github.com/SscSPs/personal_ledger_app/internal/apperrors"
	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/personal_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	pool *pgxpool.Pool
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepository {
	return &PgxAuditRepository{pool: pool}
}

var _ portsrepo.AuditRepository = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (audit_id, entity_type, entity_id, action, changes, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		entry.AuditID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.Changes,
		entry.CreatedAt,
		entry.LastUpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert audit entry for "+entry.EntityType+" "+entry.EntityID, err)
	}
	return nil
}

func (r *PgxAuditRepository) FindAuditEntries(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	query := `
		SELECT audit_id, entity_type, entity_id, action, changes, created_at, last_updated_at
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC;
	`
	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit entries", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.AuditID, &e.EntityType, &e.EntityID, &e.Action, &e.Changes, &e.CreatedAt, &e.LastUpdatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan audit entry row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading audit entry rows", err)
	}
	return entries, nil
}
