package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies a driver-level failure into the categories
// spec.md §4.1 names. The teacher repo (common/errors.go#ValidatePGError)
// dispatches on pgconn.PgError.ConstraintName for uniqueness/FK
// violations; this classifier generalizes the same single-dispatch-point
// idiom to SQLSTATE Code, since the Store Adapter also needs to tell
// serialization failures and lock-acquisition timeouts apart from plain
// constraint violations.
type ErrorKind int

const (
	// Other is anything not recognized below — treated as fatal.
	Other ErrorKind = iota
	SerializationFailure
	DeadlockDetected
	LockNotAvailable
	UniqueViolation
	CheckViolation
	NotFound
)

// SQLSTATE codes per the Postgres manual, appendix A.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
)

// Retryable reports whether the Retry Driver should attempt another pass
// for this kind (spec.md §4.5: only transient contention classes are
// retried; everything else is fatal).
func (k ErrorKind) Retryable() bool {
	switch k {
	case SerializationFailure, DeadlockDetected, LockNotAvailable:
		return true
	default:
		return false
	}
}

func (k ErrorKind) String() string {
	switch k {
	case SerializationFailure:
		return "serialization_failure"
	case DeadlockDetected:
		return "deadlock_detected"
	case LockNotAvailable:
		return "lock_not_available"
	case UniqueViolation:
		return "unique_violation"
	case CheckViolation:
		return "check_violation"
	case NotFound:
		return "not_found"
	default:
		return "other"
	}
}

// Classify inspects err for an underlying *pgconn.PgError and maps its
// SQLSTATE code to an ErrorKind. sql.ErrNoRows maps to NotFound. Any
// error with no recognizable classification maps to Other.
func Classify(err error) ErrorKind {
	if err == nil {
		return Other
	}

	if errors.Is(err, sql.ErrNoRows) {
		return NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return Other
	}

	switch pgErr.Code {
	case sqlStateSerializationFailure:
		return SerializationFailure
	case sqlStateDeadlockDetected:
		return DeadlockDetected
	case sqlStateLockNotAvailable:
		return LockNotAvailable
	case sqlStateUniqueViolation:
		return UniqueViolation
	case sqlStateCheckViolation:
		return CheckViolation
	default:
		return Other
	}
}
