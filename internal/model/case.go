package model

import (
	"time"
)

const (
	VictimTypeSelf       = "self"
	VictimTypeThirdParty = "third_party"
)

const (
	CaseStatusDraft      = "draft"
	CaseStatusCollecting = "collecting"
	CaseStatusReady      = "ready"
	CaseStatusExported   = "exported"
	CaseStatusArchived   = "archived"
)

const (
	RetentionActive          = "active"
	RetentionLegallyRetained = "legally_retained"
	RetentionPendingDeletion = "pending_deletion"
	RetentionDeleted         = "deleted"
)

// Tri-state classification flags
const (
	FlagYes     = "yes"
	FlagNo      = "no"
	FlagUnknown = "unknown"
)

// ValidFlag reports whether v is a valid tri-state flag value.
func ValidFlag(v string) bool {
	return v == FlagYes || v == FlagNo || v == FlagUnknown
}

type Case struct {
	ID              string  `db:"id"`
	VictimType      string  `db:"victim_type"`
	VictimHandle    *string `db:"victim_handle"`
	InfractorHandle *string `db:"infractor_handle"`
	PostURL         *string `db:"post_url"`
	Notes           *string `db:"notes"`

	InvolvesNudityOrSexualization string `db:"involves_nudity_or_sexualization"`
	SuspectedMinor                string `db:"suspected_minor"`

	Status          string     `db:"status"`
	RetentionStatus string     `db:"retention_status"`
	RetentionUntil  *time.Time `db:"retention_until"`
	RetentionReason *string    `db:"retention_reason"`

	// Hash of the case access secret. The raw secret is never stored.
	AccessTokenHash string `db:"access_token_hash"`

	PublicOptIn   bool       `db:"public_opt_in"`
	PublicOptInAt *time.Time `db:"public_opt_in_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CaseCredentials is the minimal projection the access guard needs.
type CaseCredentials struct {
	ID              string `db:"id"`
	AccessTokenHash string `db:"access_token_hash"`
	RetentionStatus string `db:"retention_status"`
}
