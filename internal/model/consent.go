package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ConsentScopes is the named-scope set attached to a consent event.
// Stored as a JSON column.
type ConsentScopes struct {
	CaseProcessing      bool `json:"caseProcessing"`
	AnonymizedPublicUse bool `json:"anonymizedPublicUse"`
}

func (s ConsentScopes) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ConsentScopes) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into ConsentScopes", src)
	}
}

// ConsentEvent records one acceptance of a consent version. Append-only:
// events are never edited or deleted while the case exists.
type ConsentEvent struct {
	ID             string        `db:"id"`
	CaseID         string        `db:"case_id"`
	ConsentVersion string        `db:"consent_version"`
	AcceptedAt     time.Time     `db:"accepted_at"`
	Scopes         ConsentScopes `db:"scopes"`
}
