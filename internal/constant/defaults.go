package constant

import "time"

// IdempotencyRetentionWindow is how long a completed idempotency record
// remains usable before a repeated key is treated as a fresh request
// (spec.md §4.2 default retention).
const IdempotencyRetentionWindow = 24 * time.Hour

// Retry Driver defaults (spec.md §4.5, §6).
const (
	DefaultMaxAttempts   = 3
	DefaultBaseBackoffMs = 100
	DefaultMaxBackoffMs  = 2000
	DefaultJitterMs      = 100
)

// History Reader pagination defaults (spec.md §4.6).
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)
