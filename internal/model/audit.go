package model

import (
	"time"
)

const (
	AuditCaseCreated        = "CASE_CREATED"
	AuditEvidenceUploaded   = "EVIDENCE_UPLOADED"
	AuditEvidenceViewed     = "EVIDENCE_VIEWED"
	AuditEvidenceDownloaded = "EVIDENCE_DOWNLOADED"
	AuditExportRequested    = "EXPORT_REQUESTED"
)

const (
	ActorUser   = "user"
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// AuditEntry is one append-only record of a state change or sensitive read.
// CaseID is nulled (not cascaded) if the case is ever purged.
type AuditEntry struct {
	ID        string    `db:"id"`
	CaseID    *string   `db:"case_id"`
	Action    string    `db:"action"`
	Actor     string    `db:"actor"`
	CreatedAt time.Time `db:"created_at"`
	IPHash    *string   `db:"ip_hash"`
	UserAgent *string   `db:"user_agent"`
}
