package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
)

var _ ledger.AuditSink = (*AuditLogRepo)(nil)

// AuditLogRepo sink de auditoría sobre PostgreSQL. Los snapshots before/after
// y la metadata van como JSONB; el esquema no cambia cuando cambian las
// operaciones auditadas.
type AuditLogRepo struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository construye el sink de auditoría.
func NewAuditLogRepository(pool *pgxpool.Pool) *AuditLogRepo {
	return &AuditLogRepo{pool: pool}
}

// Record persiste un evento de auditoría. Corre fuera de la transacción de la
// operación: un fallo aquí nunca revierte la operación auditada.
func (r *AuditLogRepo) Record(ctx context.Context, entry ledger.AuditEntry) error {
	before, err := marshalJSONB(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshalJSONB(entry.After)
	if err != nil {
		return err
	}
	metadata, err := marshalJSONB(entry.Metadata)
	if err != nil {
		return err
	}

	actorID := (*string)(nil)
	if entry.ActorID != "" {
		actorID = &entry.ActorID
	}
	query := `
		INSERT INTO audit_logs (id, actor_id, action, subject_type, subject_id, before, after, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.pool.Exec(ctx, query,
		uuid.New().String(), actorID, entry.Action, entry.SubjectType, entry.SubjectID,
		before, after, metadata, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func marshalJSONB(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}
