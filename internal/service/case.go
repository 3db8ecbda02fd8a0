package service

import (
	"context"

	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
)

// CaseService serves authorized reads and patches of an existing case. The
// access guard has already run by the time these are called.
type CaseService struct {
	cases    repository.CaseRepository
	evidence repository.EvidenceRepository
}

func NewCaseService(cases repository.CaseRepository, evidence repository.EvidenceRepository) *CaseService {
	return &CaseService{cases: cases, evidence: evidence}
}

// Read returns the case and its evidence metadata, oldest first.
func (s *CaseService) Read(ctx context.Context, caseID string) (*model.Case, []*model.EvidenceFile, error) {
	c, err := s.cases.ByID(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	files, err := s.evidence.ByCase(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	return c, files, nil
}

// Patch applies an allow-listed update. The repository enforces the field
// set; this passes it through after the handler has normalized values.
func (s *CaseService) Patch(ctx context.Context, caseID string, p repository.CasePatch) error {
	return s.cases.Patch(ctx, caseID, p)
}
