// Package identity_repo provides methods for managing enrolled identities
// and their stored face embeddings in the database.
package identity_repo

import (
	"database/sql"
	"errors"

	"face-attend/internal/errs"
	"face-attend/internal/model/roster_model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IdentityRepo represents a repository for enrolled identities and their
// embeddings.
type IdentityRepo struct {
	db *sqlx.DB
}

// New creates a new IdentityRepo instance with the provided database connection.
func New(db *sqlx.DB) (repo *IdentityRepo) {
	return &IdentityRepo{
		db: db,
	}
}

// GetIdentityByExternalKey retrieves an identity by its external key.
// Returns (nil, nil) when no identity is bound to the key.
func (r *IdentityRepo) GetIdentityByExternalKey(externalKey string) (identity *roster_model.Identity, err error) {
	identity = &roster_model.Identity{}

	query := `SELECT
				identity_key,
				external_key,
				display_name
			FROM identity
			WHERE external_key=$1`

	if err = r.db.Get(identity, query, externalKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return identity, err
}

// GetIdentityByKey retrieves an identity by its identity key. Returns
// (nil, nil) when not found.
func (r *IdentityRepo) GetIdentityByKey(identityKey string) (identity *roster_model.Identity, err error) {
	identity = &roster_model.Identity{}

	query := `SELECT
				identity_key,
				external_key,
				display_name
			FROM identity
			WHERE identity_key=$1`

	if err = r.db.Get(identity, query, identityKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return identity, err
}

// CreateIdentityWithEmbeddings inserts the identity and all of its
// embeddings in a single transaction: either the full enrollment becomes
// visible or none of it does. A unique-index violation on external_key is
// reported as a conflict, so two racing enrollments cannot both win.
func (r *IdentityRepo) CreateIdentityWithEmbeddings(identity *roster_model.Identity, embeddings []*roster_model.Embedding) (err error) {

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	identityQuery := `INSERT INTO identity
				(
				identity_key,
				external_key,
				display_name
				)
			VALUES (:identity_key, :external_key, :display_name)`

	if _, err = tx.NamedExec(identityQuery, identity); err != nil {
		return asConflict(err)
	}

	embeddingQuery := `INSERT INTO embedding
				(
				identity_key,
				vector,
				source_ref
				)
			VALUES (:identity_key, :vector, :source_ref)`

	for _, embedding := range embeddings {
		embedding.IdentityKey = identity.IdentityKey
		if _, err = tx.NamedExec(embeddingQuery, embedding); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// asConflict maps a postgres unique violation to the conflict error kind.
func asConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return errs.Conflict("duplicate identity")
	}
	return err
}

// GetEmbeddingsByIdentityKeys retrieves all stored embeddings for the
// given identity keys.
func (r *IdentityRepo) GetEmbeddingsByIdentityKeys(identityKeys []string) (embeddings []roster_model.Embedding, err error) {

	if len(identityKeys) == 0 {
		return nil, nil
	}

	var rows *sqlx.Rows
	var inArgs []interface{}

	query := `SELECT
				id,
				identity_key,
				vector,
				source_ref
			FROM embedding
			WHERE identity_key IN (?)`

	query, inArgs, err = sqlx.In(query, identityKeys)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	rows, err = r.db.Queryx(query, inArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var embedding roster_model.Embedding
		if err := rows.Scan(
			&embedding.Id,
			&embedding.IdentityKey,
			&embedding.Vector,
			&embedding.SourceRef,
		); err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return embeddings, err
}

// CountEmbeddings returns the number of stored embeddings for an identity.
func (r *IdentityRepo) CountEmbeddings(identityKey string) (count int, err error) {

	query := `SELECT COUNT(*) FROM embedding WHERE identity_key=$1`

	if err = r.db.QueryRow(query, identityKey).Scan(&count); err != nil {
		return 0, err
	}

	return count, err
}
