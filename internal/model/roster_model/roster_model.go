// Package roster_model holds the records the attendance core reads and
// writes: enrolled identities, their stored embeddings, and per-session
// attendance marks.
package roster_model

import (
	"github.com/pgvector/pgvector-go"
)

// Identity is an enrolled person. Created once via enrollment, never
// mutated or deleted by this core.
type Identity struct {
	IdentityKey string `db:"identity_key" json:"identityKey"`
	ExternalKey string `db:"external_key" json:"externalKey"`
	DisplayName string `db:"display_name" json:"displayName"`
}

// Embedding is one stored face vector, exclusively owned by an identity.
// Exactly three are created atomically with their identity at enrollment
// and are immutable afterwards.
type Embedding struct {
	Id          int             `db:"id" json:"-"`
	IdentityKey string          `db:"identity_key" json:"-"`
	Vector      pgvector.Vector `db:"vector" json:"-"`
	SourceRef   string          `db:"source_ref" json:"sourceRef"`
}

// MarkStatus is the attendance outcome for one identity in one session.
type MarkStatus string

const (
	StatusPresent MarkStatus = "present"
	StatusAbsent  MarkStatus = "absent"
)

// AttendanceMark is the idempotent upsert target keyed by
// (identity_key, session_key). It reflects only the most recent
// reconciliation for its session.
type AttendanceMark struct {
	IdentityKey string     `db:"identity_key" json:"identityKey"`
	SessionKey  string     `db:"session_key" json:"sessionKey"`
	Status      MarkStatus `db:"status" json:"status"`
}

// ImageBlob carries raw image bytes plus the opaque reference they came
// from (upload filename or fetch ref).
type ImageBlob struct {
	Ref  string
	Data []byte
}

// IdentityProfile is the read model for identity lookups.
type IdentityProfile struct {
	Identity
	EmbeddingCount int `json:"embeddingCount"`
}

// Outcome is the result of one reconciliation run.
type Outcome struct {
	SessionKey string   `json:"sessionKey"`
	Present    []string `json:"present"`
	Absent     []string `json:"absent"`
}

// Ack is the immediate acknowledgment for a background submission. It
// carries counts only; completion is observable via stored marks and logs.
type Ack struct {
	SessionKey string `json:"sessionKey"`
	RosterSize int    `json:"rosterSize"`
	ImageCount int    `json:"imageCount"`
}

// AsyncAttendanceRequest is the request body for background reconciliation.
// Image refs are local paths or URLs resolved by blob intake.
type AsyncAttendanceRequest struct {
	Roster    []string `json:"roster"`
	ImageRefs []string `json:"imageRefs"`
}
