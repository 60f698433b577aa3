package repository

import (
	"database/sql"
	"errors"
	"strings"

	credentials "github.com/goliatone/go-credentials"
	goerrors "github.com/goliatone/go-errors"
	gorepo "github.com/goliatone/go-repository-bun"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueMessage  = "unique constraint failed"
	genericUniqueMessage = "duplicate key"
)

// IsUniqueViolation reports whether err is a unique constraint failure from
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	// modernc sqlite reports constraint failures as plain text
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, sqliteUniqueMessage) || strings.Contains(msg, genericUniqueMessage)
}

func isConflict(err error) bool {
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) || gorepo.IsRecordNotFound(err) {
		return credentials.ErrUserNotFound
	}
	return err
}
