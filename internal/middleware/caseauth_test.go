package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludmila-omlopes/grok-report/internal/caseauth"
	"github.com/ludmila-omlopes/grok-report/internal/ctxkeys"
	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/token"
)

type stubCaseRepo struct {
	repository.CaseRepository

	creds *model.CaseCredentials
	err   error
}

func (s *stubCaseRepo) Credentials(_ context.Context, _ string) (*model.CaseCredentials, error) {
	return s.creds, s.err
}

const testCaseID = "7f9c24e5-1a2b-4c3d-8e4f-5a6b7c8d9e0f"

func serveWithAuth(t *testing.T, repo *stubCaseRepo, secret string) *httptest.ResponseRecorder {
	t.Helper()

	var gotCaseID string
	handler := CaseAuth(caseauth.NewGuard(repo))(func(w http.ResponseWriter, r *http.Request) {
		gotCaseID = ctxkeys.CaseID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cases/{caseId}", handler)

	req := httptest.NewRequest(http.MethodGet, "/api/cases/"+testCaseID, nil)
	if secret != "" {
		req.Header.Set(CaseTokenHeader, secret)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		require.Equal(t, testCaseID, gotCaseID)
	}
	return rec
}

func TestCaseAuthAllowsCorrectSecret(t *testing.T) {
	secret, err := token.Generate()
	require.NoError(t, err)

	repo := &stubCaseRepo{creds: &model.CaseCredentials{
		ID:              testCaseID,
		AccessTokenHash: token.Hash(secret),
		RetentionStatus: model.RetentionActive,
	}}

	rec := serveWithAuth(t, repo, secret)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// Wrong secret, unknown case and deleted case must be indistinguishable on
// the wire.
func TestCaseAuthUniformDenial(t *testing.T) {
	secret, err := token.Generate()
	require.NoError(t, err)
	other, err := token.Generate()
	require.NoError(t, err)

	cases := map[string]*stubCaseRepo{
		"wrong secret": {creds: &model.CaseCredentials{
			ID:              testCaseID,
			AccessTokenHash: token.Hash(other),
			RetentionStatus: model.RetentionActive,
		}},
		"unknown case": {err: repository.ErrCaseNotFound},
		"deleted case": {creds: &model.CaseCredentials{
			ID:              testCaseID,
			AccessTokenHash: token.Hash(secret),
			RetentionStatus: model.RetentionDeleted,
		}},
	}

	for name, repo := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serveWithAuth(t, repo, secret)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		})
	}
}

func TestCaseAuthMissingHeader(t *testing.T) {
	repo := &stubCaseRepo{creds: &model.CaseCredentials{ID: testCaseID}}
	rec := serveWithAuth(t, repo, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCaseAuthStoreFaultIsNotADenial(t *testing.T) {
	secret, err := token.Generate()
	require.NoError(t, err)

	repo := &stubCaseRepo{err: errors.New("connection refused")}
	rec := serveWithAuth(t, repo, secret)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
