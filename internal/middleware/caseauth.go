package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ludmila-omlopes/grok-report/internal/caseauth"
	"github.com/ludmila-omlopes/grok-report/internal/ctxkeys"
)

// CaseTokenHeader carries the case access secret. A header, never a query
// parameter, so the secret cannot leak through logs or referrers.
const CaseTokenHeader = "X-Case-Token"

// CaseAuth wraps a handler with the case access guard. On success the
// authorized case id is placed in the request context. Every denial gets
// the same 401 body: the wire does not distinguish a wrong secret from a
// missing or deleted case.
func CaseAuth(guard *caseauth.Guard) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			caseID := r.PathValue("caseId")
			secret := r.Header.Get(CaseTokenHeader)

			id, err := guard.Authorize(r.Context(), caseID, secret)
			if err != nil {
				if errors.Is(err, caseauth.ErrUnavailable) {
					slog.Error("case authorization unavailable", "error", err)
					writeDenial(w, http.StatusInternalServerError, "internal error")
					return
				}
				slog.Info("case authorization denied", "reason", err, "path", r.URL.Path)
				writeDenial(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next(w, r.WithContext(ctxkeys.WithCaseID(r.Context(), id)))
		}
	}
}

func writeDenial(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
