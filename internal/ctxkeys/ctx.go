package ctxkeys

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	CaseIDKey contextKey = "case_id"
)

// CaseID returns the case id the access guard authorized for this request,
// or "" when no guard ran.
func CaseID(ctx context.Context) string {
	id, _ := ctx.Value(CaseIDKey).(string)
	return id
}

func WithCaseID(ctx context.Context, caseID string) context.Context {
	return context.WithValue(ctx, CaseIDKey, caseID)
}
