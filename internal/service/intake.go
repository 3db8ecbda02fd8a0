package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/storage"
	"github.com/ludmila-omlopes/grok-report/internal/token"
	"github.com/ludmila-omlopes/grok-report/internal/validation"
)

var (
	ErrMissingConsent  = errors.New("consent must be accepted with a version and the case-processing scope")
	ErrPostURLRequired = errors.New("postUrl is required")
)

// ConsentInput is the consent block of a submission.
type ConsentInput struct {
	Accepted bool                `json:"accepted"`
	Version  string              `json:"version"`
	Scopes   model.ConsentScopes `json:"scopes"`
}

// CaseSubmission carries the reporter-provided case fields.
type CaseSubmission struct {
	VictimType                    string       `json:"victimType"`
	VictimHandle                  *string      `json:"victimHandle"`
	InfractorHandle               *string      `json:"infractorHandle"`
	PostURL                       *string      `json:"postUrl"`
	Notes                         *string      `json:"notes"`
	InvolvesNudityOrSexualization string       `json:"involvesNudityOrSexualization"`
	SuspectedMinor                string       `json:"suspectedMinor"`
	Consent                       ConsentInput `json:"consent"`
	PublicOptIn                   bool         `json:"publicOptIn"`
}

// CreateResult is the only place the raw access secret ever leaves the
// system. It is not stored and cannot be recovered.
type CreateResult struct {
	CaseID      string
	AccessToken string
}

type SubmitResult struct {
	CaseID        string
	AccessToken   string
	UploadedCount int
}

// IntakeService runs the "new case" flows: the plain create and the
// submit-with-attachments saga.
type IntakeService struct {
	cases       repository.CaseRepository
	consents    repository.ConsentRepository
	storage     storage.Storage
	constraints validation.FileConstraints
}

func NewIntakeService(cases repository.CaseRepository, consents repository.ConsentRepository, store storage.Storage, constraints validation.FileConstraints) *IntakeService {
	return &IntakeService{
		cases:       cases,
		consents:    consents,
		storage:     store,
		constraints: constraints,
	}
}

func validateConsent(c ConsentInput) error {
	if !c.Accepted || c.Version == "" || !c.Scopes.CaseProcessing {
		return ErrMissingConsent
	}
	return nil
}

// newCase materializes a submission into a draft case row with the verifier
// hash set. The hash is written exactly once here and never updated.
func newCase(sub CaseSubmission, accessTokenHash string, now time.Time) *model.Case {
	c := &model.Case{
		ID:                            uuid.New().String(),
		VictimType:                    sub.VictimType,
		VictimHandle:                  sub.VictimHandle,
		InfractorHandle:               sub.InfractorHandle,
		PostURL:                       sub.PostURL,
		Notes:                         sub.Notes,
		InvolvesNudityOrSexualization: sub.InvolvesNudityOrSexualization,
		SuspectedMinor:                sub.SuspectedMinor,
		Status:                        model.CaseStatusDraft,
		RetentionStatus:               model.RetentionActive,
		AccessTokenHash:               accessTokenHash,
		PublicOptIn:                   sub.PublicOptIn,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
	if c.VictimType == "" {
		c.VictimType = model.VictimTypeSelf
	}
	if !model.ValidFlag(c.InvolvesNudityOrSexualization) {
		c.InvolvesNudityOrSexualization = model.FlagUnknown
	}
	if !model.ValidFlag(c.SuspectedMinor) {
		c.SuspectedMinor = model.FlagUnknown
	}
	if c.PublicOptIn {
		c.PublicOptInAt = &now
	}
	return c
}

func newConsentEvent(caseID string, consent ConsentInput, now time.Time) *model.ConsentEvent {
	return &model.ConsentEvent{
		ID:             uuid.New().String(),
		CaseID:         caseID,
		ConsentVersion: consent.Version,
		AcceptedAt:     now,
		Scopes:         consent.Scopes,
	}
}

// CreateCase registers a case without attachments. The post URL is required
// on this path so the duplicate check has something to work with.
func (s *IntakeService) CreateCase(ctx context.Context, sub CaseSubmission) (*CreateResult, error) {
	if err := validateConsent(sub.Consent); err != nil {
		return nil, err
	}
	if sub.PostURL == nil || *sub.PostURL == "" {
		return nil, ErrPostURLRequired
	}

	secret, err := token.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := newCase(sub, token.Hash(secret), now)

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := s.consents.Create(ctx, newConsentEvent(c.ID, sub.Consent, now)); err != nil {
		return nil, fmt.Errorf("case created but consent event failed: %w", err)
	}

	return &CreateResult{CaseID: c.ID, AccessToken: secret}, nil
}

// Submit runs the intake saga: validate everything, upload each attachment
// to custody, then perform the single atomic database write. Any failure
// after a partial upload triggers best-effort deletes of every object
// stored so far; the error surfaced is always the original cause, never the
// cleanup outcome.
func (s *IntakeService) Submit(ctx context.Context, sub CaseSubmission, files []*multipart.FileHeader, userAgent string) (*SubmitResult, error) {
	if err := validateConsent(sub.Consent); err != nil {
		return nil, err
	}

	// All files must pass before any byte is uploaded; there is no partial
	// acceptance.
	for _, header := range files {
		if err := s.constraints.Validate(header); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	var uploadedKeys []string
	var evidence []*model.EvidenceFile

	for _, header := range files {
		buf, sum, err := readAndHash(header)
		if err != nil {
			s.cleanup(ctx, uploadedKeys)
			return nil, err
		}

		key, err := newStorageKey()
		if err != nil {
			s.cleanup(ctx, uploadedKeys)
			return nil, err
		}

		contentType := header.Header.Get("Content-Type")
		if err := s.storage.Put(ctx, key, bytes.NewReader(buf), contentType); err != nil {
			s.cleanup(ctx, uploadedKeys)
			return nil, err
		}
		uploadedKeys = append(uploadedKeys, key)

		evidence = append(evidence, &model.EvidenceFile{
			ID:               uuid.New().String(),
			CaseID:           "", // set below once the case id exists
			StorageKey:       key,
			OriginalFilename: header.Filename,
			MimeType:         contentType,
			SizeBytes:        header.Size,
			SHA256:           sum,
			CreatedAt:        now,
		})
	}

	secret, err := token.Generate()
	if err != nil {
		s.cleanup(ctx, uploadedKeys)
		return nil, err
	}

	c := newCase(sub, token.Hash(secret), now)
	for _, ev := range evidence {
		ev.CaseID = c.ID
	}

	audit := &model.AuditEntry{
		ID:        uuid.New().String(),
		CaseID:    &c.ID,
		Action:    model.AuditCaseCreated,
		Actor:     model.ActorUser,
		CreatedAt: now,
		UserAgent: optional(userAgent),
	}

	err = s.cases.CreateWithEvidenceAndConsent(ctx, c, newConsentEvent(c.ID, sub.Consent, now), evidence, audit)
	if err != nil {
		s.cleanup(ctx, uploadedKeys)
		return nil, err
	}

	return &SubmitResult{
		CaseID:        c.ID,
		AccessToken:   secret,
		UploadedCount: len(evidence),
	}, nil
}

// cleanup issues the compensating deletes for already-stored objects.
// Failures are logged, never propagated: an orphaned object is an accepted
// residual risk, a masked error is not.
func (s *IntakeService) cleanup(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	// The request context may already be canceled (client disconnect is one
	// of the failure modes that lands here); cleanup still has to run.
	err := s.storage.Delete(context.WithoutCancel(ctx), keys...)
	if err != nil {
		slog.Error("failed to delete stored evidence during cleanup", "error", err, "keys", len(keys))
	}
}

// readAndHash loads the attachment and computes the content hash from the
// bytes actually received. Evidence files are bounded by the size limit, so
// buffering them is fine.
func readAndHash(header *multipart.FileHeader) ([]byte, string, error) {
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buf, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	sum := sha256.Sum256(buf)
	return buf, hex.EncodeToString(sum[:]), nil
}

// newStorageKey derives an unguessable custody key, independent of the
// filename and the content hash so keys cannot collide or be enumerated.
func newStorageKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate storage key: %w", err)
	}
	return "evidence/" + hex.EncodeToString(buf), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
