package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsTransientConflict reports whether err is a duplicate prepared statement error.
//
// Pooled sessions can come back with a server-side prepared statement left by a previous
// caller. Retrying on the same session fails the same way, so callers must switch to a
// fresh session (see ExecuteWithRetry).
//
// The SQLSTATE from pgx or lib/pq is authoritative. Message matching only applies when
// the driver error was flattened to text somewhere up the chain.
func IsTransientConflict(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.DuplicatePreparedStatement
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.DuplicatePreparedStatement
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "prepared statement") && strings.Contains(msg, "already exists")
}
