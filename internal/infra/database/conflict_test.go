package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsTransientConflict(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil", nil, false},
		{"pgx code", conflictErr(), true},
		{"pgx code wrapped", fmt.Errorf("find articles: %w", conflictErr()), true},
		{"pq code", &pq.Error{Code: "42P05", Message: `prepared statement "a1" already exists`}, true},
		{"pgx other code", &pgconn.PgError{Code: "40001", Message: "prepared statement already exists"}, false},
		{"pq other code", &pq.Error{Code: "23505", Message: "duplicate key value"}, false},
		{"message only", errors.New(`ERROR: prepared statement "s0" already exists (SQLSTATE 42P05)`), true},
		{"message upper case", errors.New(`PREPARED STATEMENT "S0" ALREADY EXISTS`), true},
		{"message partial", errors.New(`prepared statement "s0" does not exist`), false},
		{"unrelated", errUnrelated, false},
	}

	for _, tt := range tests {
		if got := IsTransientConflict(tt.err); got != tt.expect {
			t.Errorf("%s: IsTransientConflict(%v) = %v, want %v", tt.name, tt.err, got, tt.expect)
		}
	}
}
