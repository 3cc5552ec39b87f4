// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// validID tells whether id can match a UUID primary key; other ids cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// trapNoRowsErr maps sql.ErrNoRows to notFound and any other failure to a *core.StoreError.
func trapNoRowsErr(op string, err error, notFound error) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return core.NewStoreError(op, err)
}
