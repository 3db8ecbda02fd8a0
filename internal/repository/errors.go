package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrEvidenceNotFound = errors.New("evidence not found")
	ErrNoFieldsToUpdate = errors.New("no valid fields to update")
)

// DuplicatePostURLError reports a post-URL uniqueness conflict. ExistingCaseID
// is the id of the case that already owns the URL when it could be resolved.
type DuplicatePostURLError struct {
	ExistingCaseID string
}

func (e *DuplicatePostURLError) Error() string {
	if e.ExistingCaseID != "" {
		return fmt.Sprintf("a case already exists for this post URL (case %s)", e.ExistingCaseID)
	}
	return "a case already exists for this post URL"
}

// isUniqueViolation detects a unique-constraint failure for both supported
// drivers (PostgreSQL SQLSTATE 23505, SQLite's UNIQUE message).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
