package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ludmila-omlopes/grok-report/internal/model"
)

type EvidenceRepository interface {
	Create(ctx context.Context, ev *model.EvidenceFile) error

	// ByCaseAndID requires both identifiers to match, so an evidence id
	// from another case resolves to ErrEvidenceNotFound.
	ByCaseAndID(ctx context.Context, caseID, evidenceID string) (*model.EvidenceFile, error)

	ByCase(ctx context.Context, caseID string) ([]*model.EvidenceFile, error)
}

type evidenceRepository struct {
	db *sqlx.DB
}

func NewEvidenceRepository(db *sqlx.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func insertEvidenceFile(ctx context.Context, e execerContext, ev *model.EvidenceFile) error {
	query := `INSERT INTO evidence_files (id, case_id, storage_key, original_filename, mime_type, size_bytes, sha256, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := e.ExecContext(ctx, query,
		ev.ID,
		ev.CaseID,
		ev.StorageKey,
		ev.OriginalFilename,
		ev.MimeType,
		ev.SizeBytes,
		ev.SHA256,
		ev.CreatedAt,
	)
	return err
}

func (r *evidenceRepository) Create(ctx context.Context, ev *model.EvidenceFile) error {
	err := insertEvidenceFile(ctx, r.db, ev)
	if err != nil {
		return fmt.Errorf("failed to create evidence record: %w", err)
	}
	return nil
}

func (r *evidenceRepository) ByCaseAndID(ctx context.Context, caseID, evidenceID string) (*model.EvidenceFile, error) {
	ev := &model.EvidenceFile{}
	query := `SELECT * FROM evidence_files WHERE id = $1 AND case_id = $2`

	err := r.db.GetContext(ctx, ev, query, evidenceID, caseID)
	if err == sql.ErrNoRows {
		return nil, ErrEvidenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence record: %w", err)
	}
	return ev, nil
}

func (r *evidenceRepository) ByCase(ctx context.Context, caseID string) ([]*model.EvidenceFile, error) {
	var files []*model.EvidenceFile
	query := `SELECT * FROM evidence_files WHERE case_id = $1 ORDER BY created_at`

	err := r.db.SelectContext(ctx, &files, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	return files, nil
}
