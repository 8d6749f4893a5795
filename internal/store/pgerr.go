package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories react to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeInvalidDatetime     = "22007"
	CodeDatetimeOverflow    = "22008"
)

// PGCode returns the SQLSTATE and constraint name of a Postgres error, or
// empty strings when err did not come from the server.
func PGCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// IsUniqueViolation reports whether err is a unique_violation, optionally
// restricted to one constraint.
func IsUniqueViolation(err error, constraint string) bool {
	code, name := PGCode(err)
	return code == CodeUniqueViolation && (constraint == "" || constraint == name)
}

// IsForeignKeyViolation reports whether err is a foreign_key_violation,
// optionally restricted to one constraint.
func IsForeignKeyViolation(err error, constraint string) bool {
	code, name := PGCode(err)
	return code == CodeForeignKeyViolation && (constraint == "" || constraint == name)
}
