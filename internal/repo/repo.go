// Package repo provides functionality to interact with roster and attendance
// data in the database. It includes methods for creating identities with
// their embeddings, loading embeddings for matching, and upserting
// attendance marks.
package repo

import (
	"face-attend/internal/model/roster_model"
	"face-attend/internal/repo/attendance_repo"
	"face-attend/internal/repo/identity_repo"

	"github.com/jmoiron/sqlx"
)

// Repo is a struct that embeds the Identity and Attendance interfaces and
// allows interaction with roster-related functions.
type Repo struct {
	Identity
	Attendance
}

// NewRepo creates a new instance of Repo, initializing it with the
// interface implementations.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{
		Identity:   identity_repo.New(db),
		Attendance: attendance_repo.New(db),
	}
}

// Identity defines the interface for identity and embedding persistence.
type Identity interface {
	GetIdentityByExternalKey(externalKey string) (identity *roster_model.Identity, err error)
	GetIdentityByKey(identityKey string) (identity *roster_model.Identity, err error)
	CreateIdentityWithEmbeddings(identity *roster_model.Identity, embeddings []*roster_model.Embedding) (err error)
	GetEmbeddingsByIdentityKeys(identityKeys []string) (embeddings []roster_model.Embedding, err error)
	CountEmbeddings(identityKey string) (count int, err error)
}

// Attendance defines the interface for attendance mark persistence.
type Attendance interface {
	UpsertMarks(sessionKey string, identityKeys []string, status roster_model.MarkStatus) (err error)
	GetMarksBySession(sessionKey string) (marks []roster_model.AttendanceMark, err error)
}
