package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
// The unique indexes on (flow_id, step_order) and (artifact_id, prev_hash) are
// the serialization points for concurrent step appends and chain appends;
// callers treat this error as "lost the race, re-read and retry".
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
