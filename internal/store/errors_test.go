package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, Other},
		{"no rows", sql.ErrNoRows, NotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), NotFound},
		{"serialization failure", &pgconn.PgError{Code: sqlStateSerializationFailure}, SerializationFailure},
		{"deadlock detected", &pgconn.PgError{Code: sqlStateDeadlockDetected}, DeadlockDetected},
		{"lock not available", &pgconn.PgError{Code: sqlStateLockNotAvailable}, LockNotAvailable},
		{"unique violation", &pgconn.PgError{Code: sqlStateUniqueViolation}, UniqueViolation},
		{"check violation", &pgconn.PgError{Code: sqlStateCheckViolation}, CheckViolation},
		{"unrecognized pg code", &pgconn.PgError{Code: "42601"}, Other},
		{"plain error", errors.New("boom"), Other},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	t.Parallel()

	retryable := []ErrorKind{SerializationFailure, DeadlockDetected, LockNotAvailable}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), "%s should be retryable", k)
	}

	fatal := []ErrorKind{UniqueViolation, CheckViolation, NotFound, Other}
	for _, k := range fatal {
		assert.False(t, k.Retryable(), "%s should not be retryable", k)
	}
}

func TestErrorKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "serialization_failure", SerializationFailure.String())
	assert.Equal(t, "other", Other.String())
}
