package model

import (
	"time"
)

// EvidenceFile is metadata about a stored evidence object, not the bytes.
// StorageKey addresses the object store and is never returned to clients.
type EvidenceFile struct {
	ID               string    `db:"id"`
	CaseID           string    `db:"case_id"`
	StorageKey       string    `db:"storage_key"`
	OriginalFilename string    `db:"original_filename"`
	MimeType         string    `db:"mime_type"`
	SizeBytes        int64     `db:"size_bytes"`
	SHA256           string    `db:"sha256"`
	CreatedAt        time.Time `db:"created_at"`
}
