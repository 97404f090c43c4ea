package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sentinel errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("jobboard/db: record not found")

	// ErrDuplicateKey is returned on unique or primary key violations.
	ErrDuplicateKey = errors.New("jobboard/db: duplicate key")

	// ErrForeignKeyViolation is returned when a referenced row is missing.
	ErrForeignKeyViolation = errors.New("jobboard/db: foreign key violation")

	// ErrNotNullViolation is returned when a NOT NULL column receives NULL.
	ErrNotNullViolation = errors.New("jobboard/db: not null violation")

	// ErrCheckViolation is returned when a CHECK constraint fails.
	ErrCheckViolation = errors.New("jobboard/db: check constraint violation")

	// ErrDeadlock is returned on deadlocks and, for SQLite, busy/locked.
	ErrDeadlock = errors.New("jobboard/db: deadlock detected")

	// ErrTimeout is returned when a statement exceeds its deadline or its
	// context is canceled.
	ErrTimeout = errors.New("jobboard/db: query timeout")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("jobboard/db: connection failed")
)

// Predicates over the sentinels; each matches wrapped errors too.
func IsNotFound(err error) bool            { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool        { return errors.Is(err, ErrDuplicateKey) }
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }
func IsNotNullViolation(err error) bool    { return errors.Is(err, ErrNotNullViolation) }
func IsCheckViolation(err error) bool      { return errors.Is(err, ErrCheckViolation) }
func IsDeadlock(err error) bool            { return errors.Is(err, ErrDeadlock) }
func IsTimeout(err error) bool             { return errors.Is(err, ErrTimeout) }
func IsConnectionFailed(err error) bool    { return errors.Is(err, ErrConnectionFailed) }

// ─────────────────────────────────────────────────────────────────────────────
// DBError
// ─────────────────────────────────────────────────────────────────────────────

// DBError pairs a sentinel with the original driver error, so callers can use
// errors.Is(err, ErrDuplicateKey) or dig into Cause for driver detail.
type DBError struct {
	Sentinel error
	Cause    error
	// Constraint is the violated constraint name when the driver reports it.
	Constraint string
}

func (e *DBError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s on %s (cause: %v)", e.Sentinel, e.Constraint, e.Cause)
	}
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// ─────────────────────────────────────────────────────────────────────────────
// ErrorMapper
// ─────────────────────────────────────────────────────────────────────────────

// ErrorMapper translates raw driver errors into sentinel errors. Unknown
// errors are returned unchanged.
type ErrorMapper interface {
	Map(err error) error
}

// ErrorMapperFunc adapts a function to ErrorMapper.
type ErrorMapperFunc func(error) error

func (f ErrorMapperFunc) Map(err error) error { return f(err) }

// DefaultErrorMapper handles database/sql and context errors, then every
// driver this package knows about.
func DefaultErrorMapper() ErrorMapper {
	return ErrorMapperFunc(defaultMap)
}

func defaultMap(err error) error {
	if err == nil {
		return nil
	}

	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	}

	for _, m := range []func(error) error{mapPQError, mapPGXError, mapMySQLError, mapSQLiteError} {
		if mapped := m(err); mapped != nil {
			return mapped
		}
	}

	if errors.Is(err, driver.ErrBadConn) {
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq and pgx share SQLSTATE codes)
// ─────────────────────────────────────────────────────────────────────────────

func mapPQError(err error) error {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return nil
	}
	return mapByPGCode(string(pe.Code), pe.Constraint, err)
}

func mapPGXError(err error) error {
	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return nil
	}
	return mapByPGCode(pe.Code, pe.ConstraintName, err)
}

// https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapByPGCode(code, constraint string, cause error) error {
	var sentinel error
	switch code {
	case "23505": // unique_violation
		sentinel = ErrDuplicateKey
	case "23503": // foreign_key_violation
		sentinel = ErrForeignKeyViolation
	case "23502": // not_null_violation
		sentinel = ErrNotNullViolation
	case "23514": // check_violation
		sentinel = ErrCheckViolation
	case "40P01": // deadlock_detected
		sentinel = ErrDeadlock
	case "57014": // query_canceled
		sentinel = ErrTimeout
	case "08000", "08001", "08003", "08004", "08006", "08007", "08P01":
		sentinel = ErrConnectionFailed
	default:
		return nil
	}
	return &DBError{Sentinel: sentinel, Cause: cause, Constraint: constraint}
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL
// ─────────────────────────────────────────────────────────────────────────────

func mapMySQLError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil
	}
	var sentinel error
	switch me.Number {
	case 1062: // ER_DUP_ENTRY
		sentinel = ErrDuplicateKey
	case 1216, 1217, 1451, 1452: // ER_NO_REFERENCED_ROW*, ER_ROW_IS_REFERENCED*
		sentinel = ErrForeignKeyViolation
	case 1048: // ER_BAD_NULL_ERROR
		sentinel = ErrNotNullViolation
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		sentinel = ErrCheckViolation
	case 1213: // ER_LOCK_DEADLOCK
		sentinel = ErrDeadlock
	case 3024: // ER_QUERY_TIMEOUT
		sentinel = ErrTimeout
	case 1045, 2002, 2003, 2006, 2013:
		sentinel = ErrConnectionFailed
	default:
		return nil
	}
	return &DBError{Sentinel: sentinel, Cause: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite
// ─────────────────────────────────────────────────────────────────────────────

func mapSQLiteError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil
	}
	var sentinel error
	switch {
	case se.ExtendedCode == sqlite3.ErrConstraintUnique,
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		sentinel = ErrDuplicateKey
	case se.ExtendedCode == sqlite3.ErrConstraintForeignKey:
		sentinel = ErrForeignKeyViolation
	case se.ExtendedCode == sqlite3.ErrConstraintNotNull:
		sentinel = ErrNotNullViolation
	case se.ExtendedCode == sqlite3.ErrConstraintCheck:
		sentinel = ErrCheckViolation
	case se.Code == sqlite3.ErrBusy, se.Code == sqlite3.ErrLocked:
		sentinel = ErrDeadlock
	default:
		return nil
	}
	return &DBError{Sentinel: sentinel, Cause: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// ChainMapper
// ─────────────────────────────────────────────────────────────────────────────

// ChainMapper tries each mapper in order and returns the first result that
// differs from the input.
func ChainMapper(mappers ...ErrorMapper) ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		if err == nil {
			return nil
		}
		var dbe *DBError
		if errors.As(err, &dbe) {
			return err
		}
		for _, m := range mappers {
			if mapped := m.Map(err); mapped != err {
				return mapped
			}
		}
		return err
	})
}
