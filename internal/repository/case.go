package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ludmila-omlopes/grok-report/internal/model"
)

type CaseRepository interface {
	// Create inserts a single case row. Returns *DuplicatePostURLError when
	// the post URL is already claimed.
	Create(ctx context.Context, c *model.Case) error

	// CreateWithEvidenceAndConsent inserts the case, its consent event, its
	// evidence metadata rows and the creation audit entry in one
	// transaction. All rows commit together or none do. Evidence bytes must
	// already be durably stored; only keys are persisted here.
	CreateWithEvidenceAndConsent(ctx context.Context, c *model.Case, consent *model.ConsentEvent, evidence []*model.EvidenceFile, audit *model.AuditEntry) error

	ByID(ctx context.Context, caseID string) (*model.Case, error)

	// Credentials loads the minimal projection the access guard needs.
	Credentials(ctx context.Context, caseID string) (*model.CaseCredentials, error)

	// Patch applies the allow-listed field set. Returns ErrNoFieldsToUpdate
	// when the patch carries nothing.
	Patch(ctx context.Context, caseID string, p CasePatch) error
}

// CasePatch is the explicit allow-list of mutable case fields. A nil pointer
// means "leave unchanged"; a pointer to the empty string clears the column
// (handles, URL). PublicOptIn is one-directional: it can only be set true.
type CasePatch struct {
	VictimHandle                  *string
	InfractorHandle               *string
	PostURL                       *string
	Notes                         *string
	InvolvesNudityOrSexualization *string
	SuspectedMinor                *string
	PublicOptIn                   bool
}

type caseRepository struct {
	db *sqlx.DB
}

func NewCaseRepository(db *sqlx.DB) CaseRepository {
	return &caseRepository{db: db}
}

type execerContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCase(ctx context.Context, e execerContext, c *model.Case) error {
	query := `INSERT INTO cases (id, victim_type, victim_handle, infractor_handle, post_url, notes,
	              involves_nudity_or_sexualization, suspected_minor, status, retention_status,
	              retention_until, retention_reason, access_token_hash, public_opt_in, public_opt_in_at,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := e.ExecContext(ctx, query,
		c.ID,
		c.VictimType,
		c.VictimHandle,
		c.InfractorHandle,
		c.PostURL,
		c.Notes,
		c.InvolvesNudityOrSexualization,
		c.SuspectedMinor,
		c.Status,
		c.RetentionStatus,
		c.RetentionUntil,
		c.RetentionReason,
		c.AccessTokenHash,
		c.PublicOptIn,
		c.PublicOptInAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// existingByPostURL resolves the case currently owning a post URL, if any.
func (r *caseRepository) existingByPostURL(ctx context.Context, postURL string) (string, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `SELECT id FROM cases WHERE post_url = $1 LIMIT 1`, postURL)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// duplicateError builds the conflict error, resolving the winning case id
// when the caller does not already know it.
func (r *caseRepository) duplicateError(ctx context.Context, postURL *string) error {
	dup := &DuplicatePostURLError{}
	if postURL != nil {
		if id, err := r.existingByPostURL(ctx, *postURL); err == nil {
			dup.ExistingCaseID = id
		}
	}
	return dup
}

func (r *caseRepository) checkPostURLFree(ctx context.Context, postURL *string) error {
	if postURL == nil {
		return nil
	}
	id, err := r.existingByPostURL(ctx, *postURL)
	if err != nil {
		return fmt.Errorf("failed to check post URL: %w", err)
	}
	if id != "" {
		return &DuplicatePostURLError{ExistingCaseID: id}
	}
	return nil
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) error {
	// Pre-check is a fast path for a friendly error; the unique index is
	// what actually closes the race window.
	if err := r.checkPostURLFree(ctx, c.PostURL); err != nil {
		return err
	}

	err := insertCase(ctx, r.db, c)
	if err != nil {
		if isUniqueViolation(err) {
			return r.duplicateError(ctx, c.PostURL)
		}
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *caseRepository) CreateWithEvidenceAndConsent(ctx context.Context, c *model.Case, consent *model.ConsentEvent, evidence []*model.EvidenceFile, audit *model.AuditEntry) error {
	if err := r.checkPostURLFree(ctx, c.PostURL); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = insertCase(ctx, tx, c)
	if err != nil {
		if isUniqueViolation(err) {
			tx.Rollback()
			return r.duplicateError(ctx, c.PostURL)
		}
		return fmt.Errorf("failed to create case: %w", err)
	}

	err = insertConsentEvent(ctx, tx, consent)
	if err != nil {
		return fmt.Errorf("failed to create consent event: %w", err)
	}

	for _, ev := range evidence {
		err = insertEvidenceFile(ctx, tx, ev)
		if err != nil {
			return fmt.Errorf("failed to create evidence record: %w", err)
		}
	}

	err = insertAuditEntry(ctx, tx, audit)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit case creation: %w", err)
	}
	return nil
}

func (r *caseRepository) ByID(ctx context.Context, caseID string) (*model.Case, error) {
	c := &model.Case{}
	err := r.db.GetContext(ctx, c, `SELECT * FROM cases WHERE id = $1`, caseID)
	if err == sql.ErrNoRows {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return c, nil
}

func (r *caseRepository) Credentials(ctx context.Context, caseID string) (*model.CaseCredentials, error) {
	creds := &model.CaseCredentials{}
	query := `SELECT id, access_token_hash, retention_status FROM cases WHERE id = $1`

	err := r.db.GetContext(ctx, creds, query, caseID)
	if err == sql.ErrNoRows {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case credentials: %w", err)
	}
	return creds, nil
}

func (r *caseRepository) Patch(ctx context.Context, caseID string, p CasePatch) error {
	now := time.Now()

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.VictimHandle != nil {
		set("victim_handle", emptyToNull(*p.VictimHandle))
	}
	if p.InfractorHandle != nil {
		set("infractor_handle", emptyToNull(*p.InfractorHandle))
	}
	if p.PostURL != nil {
		set("post_url", emptyToNull(*p.PostURL))
	}
	if p.Notes != nil {
		set("notes", *p.Notes)
	}
	if p.InvolvesNudityOrSexualization != nil {
		set("involves_nudity_or_sexualization", *p.InvolvesNudityOrSexualization)
	}
	if p.SuspectedMinor != nil {
		set("suspected_minor", *p.SuspectedMinor)
	}
	if p.PublicOptIn {
		set("public_opt_in", true)
		set("public_opt_in_at", now)
	}

	if len(sets) == 0 {
		return ErrNoFieldsToUpdate
	}

	set("updated_at", now)
	args = append(args, caseID)
	query := fmt.Sprintf(`UPDATE cases SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return r.duplicateError(ctx, p.PostURL)
		}
		return fmt.Errorf("failed to patch case: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrCaseNotFound
	}
	return nil
}

func emptyToNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
