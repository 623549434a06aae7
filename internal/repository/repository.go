package repository

import (
	"database/sql"
	"errors"
)

// Sentinel errors surfaced by transactional read-then-write sections.
// Services translate these into the public error taxonomy.
var (
	ErrDuplicateSignup = errors.New("volunteer already signed up for shift")
	ErrNoSlots         = errors.New("no slots remaining on shift")
	ErrEditPending     = errors.New("edit request already pending")
	ErrNotPending      = errors.New("no pending row to consume")
)

// requireRowAffected converts a zero-row write into sql.ErrNoRows so
// callers can map missing targets to NOT_FOUND uniformly.
func requireRowAffected(result sql.Result, entity string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
