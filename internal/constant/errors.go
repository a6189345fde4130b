// Package constant holds the ledger engine's business error sentinels.
//
// Each is a short numbered code in the style of the teacher repo's
// common/constant/errors.go — callers compare with errors.Is, never by
// string, and the code is what a downstream HTTP layer would surface to
// API consumers.
package constant

import "errors"

var (
	ErrMissingFieldsInRequest  = errors.New("WL-0001")
	ErrInvalidAmount           = errors.New("WL-0002")
	ErrUnknownAssetCode        = errors.New("WL-0003")
	ErrInactiveAsset           = errors.New("WL-0004")
	ErrAccountNotFound         = errors.New("WL-0005")
	ErrInactiveAccount         = errors.New("WL-0006")
	ErrSystemAccountNotFound   = errors.New("WL-0007")
	ErrInsufficientFunds       = errors.New("WL-0008")
	ErrIdempotencyKeyConflict  = errors.New("WL-0009")
	ErrSerializationFailure    = errors.New("WL-0010")
	ErrDeadlockDetected        = errors.New("WL-0011")
	ErrLockNotAvailable        = errors.New("WL-0012")
	ErrUniqueViolation         = errors.New("WL-0013")
	ErrCheckViolation          = errors.New("WL-0014")
	ErrInternalServer          = errors.New("WL-0015")
	ErrInvalidPaginationLimit  = errors.New("WL-0016")
	ErrInvalidPaginationOffset = errors.New("WL-0017")
	ErrRetriesExhausted        = errors.New("WL-0018")
)
