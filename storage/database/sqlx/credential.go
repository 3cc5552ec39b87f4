package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

const credentialColumns = `id, email, password_hash, created_at, last_login`

type credentialRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r credentialRow) toCredential() user.Credential {
	c := user.Credential{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		c.LastLogin = r.LastLogin.Time.UTC()
	}
	return c
}

type credentialRepository struct {
	db *sqlx.DB
}

var _ user.CredentialRepository = (*credentialRepository)(nil)

func NewCredentialRepository(db *sqlx.DB) user.CredentialRepository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) CreateCredential(ctx context.Context, c user.Credential) (user.Credential, error) {
	q := `INSERT INTO "identity" (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, q, c.ID, c.Email, c.PasswordHash, c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return user.Credential{}, user.ErrEmailExists
		}
		return user.Credential{}, core.NewStoreError("creating identity", err)
	}
	return c, nil
}

func (repo *credentialRepository) GetCredential(ctx context.Context, id string) (user.Credential, error) {
	if !validID(id) {
		return user.Credential{}, user.ErrIdentityNotFound
	}
	var row credentialRow
	q := `SELECT ` + credentialColumns + ` FROM "identity" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return user.Credential{}, trapNoRowsErr("getting identity", err, user.ErrIdentityNotFound)
	}
	return row.toCredential(), nil
}

func (repo *credentialRepository) GetCredentialByEmail(ctx context.Context, email string) (user.Credential, error) {
	var row credentialRow
	q := `SELECT ` + credentialColumns + ` FROM "identity" WHERE email = $1`
	if err := repo.db.GetContext(ctx, &row, q, email); err != nil {
		return user.Credential{}, trapNoRowsErr("getting identity", err, user.ErrIdentityNotFound)
	}
	return row.toCredential(), nil
}

func (repo *credentialRepository) UpdateCredential(ctx context.Context, c user.Credential) (user.Credential, error) {
	if !validID(c.ID) {
		return user.Credential{}, user.ErrIdentityNotFound
	}
	var row credentialRow
	q := `UPDATE "identity"
		SET password_hash = COALESCE($2, password_hash), last_login = $3
		WHERE id = $1
		RETURNING ` + credentialColumns
	// a nil slice is sent as an empty bytea, not NULL
	var hash interface{}
	if len(c.PasswordHash) > 0 {
		hash = c.PasswordHash
	}
	lastLogin := null.NewTime(c.LastLogin, !c.LastLogin.IsZero())
	if err := repo.db.GetContext(ctx, &row, q, c.ID, hash, lastLogin); err != nil {
		return user.Credential{}, trapNoRowsErr("updating identity", err, user.ErrIdentityNotFound)
	}
	return row.toCredential(), nil
}

func (repo *credentialRepository) DeleteCredential(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrIdentityNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "identity" WHERE id = $1`, id)
	if err != nil {
		return core.NewStoreError("deleting identity", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrIdentityNotFound
	}
	return nil
}
