package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/validation"
)

type fakeEvidenceRepo struct {
	repository.EvidenceRepository

	created   *model.EvidenceFile
	createErr error
	byIDFile  *model.EvidenceFile
	byIDErr   error
}

func (f *fakeEvidenceRepo) Create(_ context.Context, ev *model.EvidenceFile) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = ev
	return nil
}

func (f *fakeEvidenceRepo) ByCaseAndID(_ context.Context, _, _ string) (*model.EvidenceFile, error) {
	return f.byIDFile, f.byIDErr
}

type fakeAuditRepo struct {
	repository.AuditRepository

	entries   []*model.AuditEntry
	appendErr error
}

func (f *fakeAuditRepo) Append(_ context.Context, entry *model.AuditEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func newEvidence(evidence *fakeEvidenceRepo, audit *fakeAuditRepo, store *fakeStorage) *EvidenceService {
	return NewEvidenceService(evidence, audit, store, validation.EvidenceConstraints(15<<20))
}

func TestUploadStoresBytesThenMetadata(t *testing.T) {
	evidence := &fakeEvidenceRepo{}
	audit := &fakeAuditRepo{}
	store := newFakeStorage()
	svc := newEvidence(evidence, audit, store)

	ev, err := svc.Upload(context.Background(), "case-1", multipartHeader(t, "late.png", pngBytes(1024)), "test-agent")
	require.NoError(t, err)

	assert.Equal(t, "case-1", ev.CaseID)
	assert.Contains(t, store.objects, ev.StorageKey)
	require.NotNil(t, evidence.created)
	assert.Equal(t, ev.StorageKey, evidence.created.StorageKey)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.AuditEvidenceUploaded, audit.entries[0].Action)
}

func TestUploadRejectsInvalidFileWithoutStoring(t *testing.T) {
	store := newFakeStorage()
	svc := newEvidence(&fakeEvidenceRepo{}, &fakeAuditRepo{}, store)

	_, err := svc.Upload(context.Background(), "case-1", multipartHeader(t, "notes.txt", []byte("text")), "")
	assert.ErrorIs(t, err, validation.ErrUnsupportedType)
	assert.Empty(t, store.objects)
}

func TestUploadDeletesObjectWhenRecordFails(t *testing.T) {
	dbErr := errors.New("insert failed")
	evidence := &fakeEvidenceRepo{createErr: dbErr}
	store := newFakeStorage()
	svc := newEvidence(evidence, &fakeAuditRepo{}, store)

	_, err := svc.Upload(context.Background(), "case-1", multipartHeader(t, "late.png", pngBytes(1024)), "")
	assert.ErrorIs(t, err, dbErr)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestReadResolvesByCaseAndID(t *testing.T) {
	evidence := &fakeEvidenceRepo{byIDErr: repository.ErrEvidenceNotFound}
	store := newFakeStorage()
	svc := newEvidence(evidence, &fakeAuditRepo{}, store)

	_, err := svc.Read(context.Background(), "case-1", "ev-from-other-case", false, "")
	assert.ErrorIs(t, err, repository.ErrEvidenceNotFound)
}

func TestReadAuditsViewBeforeStreaming(t *testing.T) {
	store := newFakeStorage()
	store.objects["evidence/key1"] = pngBytes(512)

	evidence := &fakeEvidenceRepo{byIDFile: &model.EvidenceFile{
		ID:               "ev-1",
		CaseID:           "case-1",
		StorageKey:       "evidence/key1",
		OriginalFilename: "shot.png",
		MimeType:         "image/png",
		SizeBytes:        512,
	}}
	audit := &fakeAuditRepo{}
	svc := newEvidence(evidence, audit, store)

	stream, err := svc.Read(context.Background(), "case-1", "ev-1", false, "test-agent")
	require.NoError(t, err)
	defer stream.Body.Close()

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.AuditEvidenceViewed, audit.entries[0].Action)
	assert.Equal(t, "image/png", stream.ContentType)
	assert.Equal(t, int64(512), stream.ContentLength)
	assert.Equal(t, "shot.png", stream.Filename)
}

func TestReadDownloadIntentChangesAuditAction(t *testing.T) {
	store := newFakeStorage()
	store.objects["evidence/key1"] = pngBytes(512)

	evidence := &fakeEvidenceRepo{byIDFile: &model.EvidenceFile{
		ID: "ev-1", CaseID: "case-1", StorageKey: "evidence/key1",
	}}
	audit := &fakeAuditRepo{}
	svc := newEvidence(evidence, audit, store)

	stream, err := svc.Read(context.Background(), "case-1", "ev-1", true, "")
	require.NoError(t, err)
	defer stream.Body.Close()

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.AuditEvidenceDownloaded, audit.entries[0].Action)
}

// An unknown store length must propagate as unknown; the recorded size is
// not a substitute for it.
func TestReadUnknownLengthStaysUnknown(t *testing.T) {
	store := newFakeStorage()
	store.objects["evidence/key1"] = pngBytes(512)
	store.unknownLen = true

	evidence := &fakeEvidenceRepo{byIDFile: &model.EvidenceFile{
		ID: "ev-1", CaseID: "case-1", StorageKey: "evidence/key1", SizeBytes: 512,
	}}
	svc := newEvidence(evidence, &fakeAuditRepo{}, store)

	stream, err := svc.Read(context.Background(), "case-1", "ev-1", false, "")
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.Equal(t, int64(-1), stream.ContentLength)
}

func TestReadFailsClosedWhenAuditFails(t *testing.T) {
	store := newFakeStorage()
	store.objects["evidence/key1"] = pngBytes(512)

	evidence := &fakeEvidenceRepo{byIDFile: &model.EvidenceFile{
		ID: "ev-1", CaseID: "case-1", StorageKey: "evidence/key1",
	}}
	audit := &fakeAuditRepo{appendErr: errors.New("audit log full")}
	svc := newEvidence(evidence, audit, store)

	_, err := svc.Read(context.Background(), "case-1", "ev-1", false, "")
	require.Error(t, err)
}

func TestReadWrapsStoreFailure(t *testing.T) {
	store := newFakeStorage()
	store.getErr = errors.New("s3: no such bucket")

	evidence := &fakeEvidenceRepo{byIDFile: &model.EvidenceFile{
		ID: "ev-1", CaseID: "case-1", StorageKey: "evidence/key1",
	}}
	svc := newEvidence(evidence, &fakeAuditRepo{}, store)

	_, err := svc.Read(context.Background(), "case-1", "ev-1", false, "")
	assert.ErrorIs(t, err, ErrCustodyUnavailable)
}
