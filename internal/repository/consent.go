package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ludmila-omlopes/grok-report/internal/model"
)

// ConsentRepository is append-only: events accumulate and are never edited.
type ConsentRepository interface {
	Create(ctx context.Context, ev *model.ConsentEvent) error
	ByCase(ctx context.Context, caseID string) ([]*model.ConsentEvent, error)
}

type consentRepository struct {
	db *sqlx.DB
}

func NewConsentRepository(db *sqlx.DB) ConsentRepository {
	return &consentRepository{db: db}
}

func insertConsentEvent(ctx context.Context, e execerContext, ev *model.ConsentEvent) error {
	query := `INSERT INTO consent_events (id, case_id, consent_version, accepted_at, scopes)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := e.ExecContext(ctx, query,
		ev.ID,
		ev.CaseID,
		ev.ConsentVersion,
		ev.AcceptedAt,
		ev.Scopes,
	)
	return err
}

func (r *consentRepository) Create(ctx context.Context, ev *model.ConsentEvent) error {
	err := insertConsentEvent(ctx, r.db, ev)
	if err != nil {
		return fmt.Errorf("failed to create consent event: %w", err)
	}
	return nil
}

func (r *consentRepository) ByCase(ctx context.Context, caseID string) ([]*model.ConsentEvent, error) {
	var events []*model.ConsentEvent
	query := `SELECT * FROM consent_events WHERE case_id = $1 ORDER BY accepted_at`

	err := r.db.SelectContext(ctx, &events, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consent events: %w", err)
	}
	return events, nil
}
