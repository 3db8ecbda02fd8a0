package service

import (
	"bytes"
	"context"
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
	"github.com/ludmila-omlopes/grok-report/internal/validation"
)

// ErrCustodyUnavailable flags a failure to reach the object store. The
// storage key itself is never part of the error surface.
var ErrCustodyUnavailable = errors.New("evidence store unavailable")

// EvidenceStream is an opened evidence object ready to send to the client.
// ContentLength is -1 when unknown and should then be omitted from headers.
type EvidenceStream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// EvidenceService is the access façade for single evidence items: uploads
// after case creation and authenticated streamed reads.
type EvidenceService struct {
	evidence    repository.EvidenceRepository
	audit       repository.AuditRepository
	storage     storage.Storage
	constraints validation.FileConstraints
}

func NewEvidenceService(evidence repository.EvidenceRepository, audit repository.AuditRepository, store storage.Storage, constraints validation.FileConstraints) *EvidenceService {
	return &EvidenceService{
		evidence:    evidence,
		audit:       audit,
		storage:     store,
		constraints: constraints,
	}
}

// Upload validates and stores one additional evidence file for an existing
// case: bytes to custody first, then the metadata row. A failed row insert
// triggers a compensating delete of the stored object.
func (s *EvidenceService) Upload(ctx context.Context, caseID string, header *multipart.FileHeader, userAgent string) (*model.EvidenceFile, error) {
	if err := s.constraints.Validate(header); err != nil {
		return nil, err
	}

	buf, sum, err := readAndHash(header)
	if err != nil {
		return nil, err
	}

	key, err := newStorageKey()
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if err := s.storage.Put(ctx, key, bytes.NewReader(buf), contentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCustodyUnavailable, err)
	}

	ev := &model.EvidenceFile{
		ID:               uuid.New().String(),
		CaseID:           caseID,
		StorageKey:       key,
		OriginalFilename: header.Filename,
		MimeType:         contentType,
		SizeBytes:        header.Size,
		SHA256:           sum,
		CreatedAt:        time.Now(),
	}

	if err := s.evidence.Create(ctx, ev); err != nil {
		delErr := s.storage.Delete(context.WithoutCancel(ctx), key)
		if delErr != nil {
			slog.Error("failed to delete stored evidence during cleanup", "error", delErr)
		}
		return nil, err
	}

	if err := s.appendAudit(ctx, caseID, model.AuditEvidenceUploaded, userAgent); err != nil {
		return nil, err
	}

	return ev, nil
}

// Read authorizes nothing itself (the guard already has); it resolves the
// evidence record, writes the access audit entry, and opens the object for
// streaming. The audit write happens before any byte reaches the caller so
// aborting a download cannot skip it.
func (s *EvidenceService) Read(ctx context.Context, caseID, evidenceID string, download bool, userAgent string) (*EvidenceStream, error) {
	ev, err := s.evidence.ByCaseAndID(ctx, caseID, evidenceID)
	if err != nil {
		return nil, err
	}

	obj, err := s.storage.Get(ctx, ev.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCustodyUnavailable, err)
	}

	action := model.AuditEvidenceViewed
	if download {
		action = model.AuditEvidenceDownloaded
	}
	if err := s.appendAudit(ctx, caseID, action, userAgent); err != nil {
		_ = obj.Body.Close()
		return nil, err
	}

	contentType := ev.MimeType
	if contentType == "" {
		contentType = obj.ContentType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// The length comes from the store or not at all; the recorded size is
	// never used for response framing.
	return &EvidenceStream{
		Body:          obj.Body,
		ContentType:   contentType,
		ContentLength: obj.ContentLength,
		Filename:      validation.SanitizeFilename(ev.OriginalFilename),
	}, nil
}

func (s *EvidenceService) appendAudit(ctx context.Context, caseID, action, userAgent string) error {
	return s.audit.Append(ctx, &model.AuditEntry{
		ID:        uuid.New().String(),
		CaseID:    &caseID,
		Action:    action,
		Actor:     model.ActorUser,
		CreatedAt: time.Now(),
		UserAgent: optional(userAgent),
	})
}
