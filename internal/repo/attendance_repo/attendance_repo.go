// Package attendance_repo provides methods for persisting attendance marks.
// A mark is an upsert target keyed by (identity_key, session_key), not an
// append-only log: re-running a reconciliation overwrites prior marks for
// the session without creating duplicates.
package attendance_repo

import (
	"face-attend/internal/model/roster_model"

	"github.com/jmoiron/sqlx"
)

// AttendanceRepo represents a repository for attendance marks.
type AttendanceRepo struct {
	db *sqlx.DB
}

// New creates a new AttendanceRepo instance with the provided database connection.
func New(db *sqlx.DB) (repo *AttendanceRepo) {
	return &AttendanceRepo{
		db: db,
	}
}

// UpsertMarks sets the status for every given identity in the session.
// Upserting twice with the same status is a no-op in effect; the unique
// index on (identity_key, session_key) makes the write idempotent.
func (r *AttendanceRepo) UpsertMarks(sessionKey string, identityKeys []string, status roster_model.MarkStatus) (err error) {

	query := `INSERT INTO attendance_mark
				(
				identity_key,
				session_key,
				status
				)
			VALUES ($1, $2, $3)
			ON CONFLICT (identity_key, session_key)
			DO UPDATE SET status=EXCLUDED.status`

	for _, identityKey := range identityKeys {
		if _, err = r.db.Exec(query, identityKey, sessionKey, status); err != nil {
			return err
		}
	}

	return err
}

// GetMarksBySession retrieves all marks recorded for a session.
func (r *AttendanceRepo) GetMarksBySession(sessionKey string) (marks []roster_model.AttendanceMark, err error) {

	query := `SELECT
				identity_key,
				session_key,
				status
			FROM attendance_mark
			WHERE session_key=$1
			ORDER BY identity_key`

	if err = r.db.Select(&marks, query, sessionKey); err != nil {
		return nil, err
	}

	return marks, err
}
