package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry describes one Ledger Writer action for later inspection
// (spec.md §4.3 step 7, shape supplemented per SPEC_FULL.md §C.1).
type AuditLogEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	Action        TransactionType
	Actor         *string // nil when no actor context was available
	Payload       []byte  // canonical JSON of the originating request
	CreatedAt     time.Time
}
