package store

import (
	"errors"

	"zombiezen.com/go/sqlite"
)

// Sentinel errors for store operations.
var (
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrNotFound            = errors.New("record not found")
	ErrMissingIdentifier   = errors.New("record has no identifier")
	ErrClosed              = errors.New("store is closed")
)

// IsRetryable reports whether err may succeed when the operation is run
// again: an identifier taken by a concurrent writer or a busy database.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrDuplicateIdentifier) {
		return true
	}
	switch sqlite.ErrCode(err).ToPrimary() {
	case sqlite.ResultBusy, sqlite.ResultLocked:
		return true
	}
	return false
}

func isPrimaryKeyViolation(err error) bool {
	return sqlite.ErrCode(err) == sqlite.ResultConstraintPrimaryKey
}
