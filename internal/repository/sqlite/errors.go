package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/YongminGwon/omok-server/internal/apperror"
)

// constraintKind classifies a SQLite constraint failure.
type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
	constraintCheck
)

// classify inspects a modernc error for the extended result code.
// modernc enables extended result codes, so UNIQUE and FOREIGN KEY failures
// arrive as SQLITE_CONSTRAINT_UNIQUE (2067) and SQLITE_CONSTRAINT_FOREIGNKEY (787).
func classify(err error) constraintKind {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return constraintNone
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return constraintUnique
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return constraintForeignKey
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return constraintCheck
	}
	// primary code only
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return constraintUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintForeignKey
	case strings.Contains(msg, "CHECK constraint failed"):
		return constraintCheck
	}
	return constraintNone
}

// storeError wraps an infrastructure failure as apperror.ErrStoreUnavailable.
// The driver error stays reachable through errors.As for logging.
func storeError(op string, err error) error {
	return apperror.StoreUnavailable(op, fmt.Errorf("sqlite: %s: %w", op, err))
}
