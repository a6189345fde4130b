package mmodel

import "time"

// IdempotencyStatus mirrors spec.md §3: only "completed" records are
// ever returned by a lookup; anything else is treated as absent.
type IdempotencyStatus string

const IdempotencyStatusCompleted IdempotencyStatus = "completed"

// IdempotencyRecord is keyed by the client-supplied idempotency key
// (spec.md §3). RequestHash is stored for diagnostics only by default —
// see spec.md §9 Open Questions on whether it should also be compared
// on lookup.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Response     []byte // canonical JSON of the response previously returned
	Status       IdempotencyStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether this record should be treated as absent.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Usable reports whether a lookup may return this record's response.
func (r IdempotencyRecord) Usable(now time.Time) bool {
	return r.Status == IdempotencyStatusCompleted && !r.Expired(now)
}
