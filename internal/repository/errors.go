package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint failed") ||
		strings.Contains(msg, "a foreign key constraint fails")
}

// uniqueViolationOn reports whether err is a unique violation raised by the
// index covering table.column. Postgres names the constraint; sqlite
// reports "table.column"; mysql reports the index name.
func uniqueViolationOn(err error, table, column string) bool {
	if !isUniqueConstraintError(err) {
		return false
	}
	index := "idx_" + table + "_" + column
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName == index ||
			strings.Contains(pgErr.Message, index)
	}
	msg := err.Error()
	return strings.Contains(msg, table+"."+column) || strings.Contains(msg, index)
}
