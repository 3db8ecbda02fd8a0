package caseauth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaseRepo struct {
	repository.CaseRepository
	creds *model.CaseCredentials
	err   error
}

func (f *fakeCaseRepo) Credentials(ctx context.Context, caseID string) (*model.CaseCredentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.creds == nil || f.creds.ID != caseID {
		return nil, repository.ErrCaseNotFound
	}
	return f.creds, nil
}

func newTestGuard(t *testing.T) (*Guard, string, string) {
	t.Helper()

	secret, err := token.Generate()
	require.NoError(t, err)

	caseID := uuid.New().String()
	repo := &fakeCaseRepo{creds: &model.CaseCredentials{
		ID:              caseID,
		AccessTokenHash: token.Hash(secret),
		RetentionStatus: model.RetentionActive,
	}}
	return NewGuard(repo), caseID, secret
}

func TestAuthorizeSuccess(t *testing.T) {
	g, caseID, secret := newTestGuard(t)

	id, err := g.Authorize(context.Background(), caseID, secret)
	require.NoError(t, err)
	assert.Equal(t, caseID, id)
}

func TestAuthorizeMalformedCaseID(t *testing.T) {
	g, _, secret := newTestGuard(t)

	for _, bad := range []string{"", "not-a-uuid", "12345", "00000000-0000-0000-0000-000000000000"} {
		_, err := g.Authorize(context.Background(), bad, secret)
		assert.ErrorIs(t, err, ErrMalformedCaseID, "caseID=%q", bad)
	}
}

func TestAuthorizeShortSecret(t *testing.T) {
	g, caseID, _ := newTestGuard(t)

	_, err := g.Authorize(context.Background(), caseID, "")
	assert.ErrorIs(t, err, ErrSecretTooShort)

	_, err = g.Authorize(context.Background(), caseID, "short")
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestAuthorizeUnknownCase(t *testing.T) {
	g, _, secret := newTestGuard(t)

	_, err := g.Authorize(context.Background(), uuid.New().String(), secret)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestAuthorizeWrongSecret(t *testing.T) {
	g, caseID, _ := newTestGuard(t)

	other, err := token.Generate()
	require.NoError(t, err)

	_, err = g.Authorize(context.Background(), caseID, other)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthorizeDeletedCaseDeniesEvenWithCorrectSecret(t *testing.T) {
	secret, err := token.Generate()
	require.NoError(t, err)

	caseID := uuid.New().String()
	repo := &fakeCaseRepo{creds: &model.CaseCredentials{
		ID:              caseID,
		AccessTokenHash: token.Hash(secret),
		RetentionStatus: model.RetentionDeleted,
	}}
	g := NewGuard(repo)

	_, err = g.Authorize(context.Background(), caseID, secret)
	assert.ErrorIs(t, err, ErrCaseDeleted)
}

func TestAuthorizeStorageFailureIsUnavailable(t *testing.T) {
	g := NewGuard(&fakeCaseRepo{err: errors.New("connection refused")})

	secret, err := token.Generate()
	require.NoError(t, err)

	_, err = g.Authorize(context.Background(), uuid.New().String(), secret)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
