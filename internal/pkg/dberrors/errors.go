package dberrors

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

// PostgreSQL integrity constraint violation codes (class 23)
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique / primary key violation
// raised by either supported driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign key violation
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// IsConstraintViolation reports whether err is any integrity constraint failure
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation:
			return true
		}
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// extended result codes keep the primary code in the low byte
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// Classify wraps a driver error into the uniform StorageError for op.
// Errors that already are StorageErrors pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *apperrors.StorageError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NewStorageError(apperrors.ErrNotFound, op, "no matching row", err)
	case IsUniqueViolation(err):
		return apperrors.NewStorageError(apperrors.ErrConstraintViolation, op, "duplicate value violates uniqueness", err)
	case IsForeignKeyViolation(err):
		return apperrors.NewStorageError(apperrors.ErrConstraintViolation, op, "referenced row is missing or still referenced", err)
	case IsConstraintViolation(err):
		return apperrors.NewStorageError(apperrors.ErrConstraintViolation, op, "integrity constraint violated", err)
	default:
		return apperrors.NewStorageError(apperrors.ErrStorageFault, op, "storage operation failed", err)
	}
}
