// Package caseauth is the single chokepoint for case access. Possession of
// the case secret, not an identity, is what grants rights: every endpoint
// that touches a specific case authorizes through Guard and nothing else.
package caseauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/token"
)

var (
	ErrMalformedCaseID = errors.New("invalid case id format")
	ErrSecretTooShort  = errors.New("missing or invalid token")
	ErrCaseNotFound    = errors.New("case not found")

	// ErrCaseDeleted is kept distinct from ErrCaseNotFound for logs and
	// metrics; the HTTP surface presents both identically so a prober
	// cannot tell a purged case from one that never existed.
	ErrCaseDeleted = errors.New("case deleted")

	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable flags a storage fault, not an authorization verdict.
	ErrUnavailable = errors.New("case store unavailable")
)

type Guard struct {
	cases repository.CaseRepository
}

func NewGuard(cases repository.CaseRepository) *Guard {
	return &Guard{cases: cases}
}

// Authorize validates the presented secret against the case's stored
// verifier and returns the authorized case id. The format checks run before
// any storage access; the verifier comparison is constant-time.
func (g *Guard) Authorize(ctx context.Context, caseID, presentedSecret string) (string, error) {
	caseID = strings.TrimSpace(caseID)
	id, err := uuid.Parse(caseID)
	if err != nil || id.Version() != 4 {
		return "", ErrMalformedCaseID
	}

	if len(presentedSecret) < token.MinPresentedLength {
		return "", ErrSecretTooShort
	}

	creds, err := g.cases.Credentials(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return "", ErrCaseNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if creds.RetentionStatus == model.RetentionDeleted {
		return "", ErrCaseDeleted
	}

	if !token.Match(creds.AccessTokenHash, presentedSecret) {
		return "", ErrUnauthorized
	}

	return creds.ID, nil
}
