package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ludmila-omlopes/grok-report/internal/model"
)

// AuditRepository is append-only and monotonically growing. There is no
// public read path; ByCase exists for internal/administrative tooling.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	ByCase(ctx context.Context, caseID string) ([]*model.AuditEntry, error)
}

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func insertAuditEntry(ctx context.Context, e execerContext, entry *model.AuditEntry) error {
	query := `INSERT INTO audit_log (id, case_id, action, actor, created_at, ip_hash, user_agent)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := e.ExecContext(ctx, query,
		entry.ID,
		entry.CaseID,
		entry.Action,
		entry.Actor,
		entry.CreatedAt,
		entry.IPHash,
		entry.UserAgent,
	)
	return err
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	err := insertAuditEntry(ctx, r.db, entry)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) ByCase(ctx context.Context, caseID string) ([]*model.AuditEntry, error) {
	var entries []*model.AuditEntry
	query := `SELECT * FROM audit_log WHERE case_id = $1 ORDER BY created_at`

	err := r.db.SelectContext(ctx, &entries, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
