package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Code returns the SQLSTATE carried by err, or "" when err did not come from the server.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool { return Code(err) == pgerrcode.UniqueViolation }

func IsForeignKeyViolation(err error) bool { return Code(err) == pgerrcode.ForeignKeyViolation }

// Constraint names the violated constraint, or "" when err did not come from the server.
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
