package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	"github.com/eslsoft/skillswap/internal/core"
)

// errTransient marks driver failures worth retrying: lock contention,
// serialization failures and dropped connections.
var errTransient = errors.New("transient storage error")

// mapError translates driver and Ent errors into domain errors. Unique
// violations become core.ErrConflict; retryable failures are tagged with errTransient.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err), entgenerated.IsConstraintError(err):
		return fmt.Errorf("%w: %v", core.ErrConflict, err)
	case isRetryable(err):
		return fmt.Errorf("%w: %w", errTransient, err)
	default:
		return err
	}
}

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

func isRetryable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return pqErr.Code.Class() == "08"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
