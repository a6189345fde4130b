// Package idempotency is the Store Adapter's repository for the
// idempotency_log relation — the authoritative record behind the
// Idempotency Registry (spec.md §4.2). The Redis accelerator in
// internal/adapters/redis sits in front of this as a fast path; this
// table is the source of truth a cache miss or eviction falls back to.
package idempotency

import (
	"time"

	"github.com/ironvault/walletledger/internal/mmodel"
)

// RecordPostgreSQLModel mirrors the idempotency_log columns.
type RecordPostgreSQLModel struct {
	Key         string
	RequestHash string
	Response    []byte
	Status      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (m *RecordPostgreSQLModel) FromEntity(r *mmodel.IdempotencyRecord) {
	*m = RecordPostgreSQLModel{
		Key:         r.Key,
		RequestHash: r.RequestHash,
		Response:    r.Response,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

func (m *RecordPostgreSQLModel) ToEntity() *mmodel.IdempotencyRecord {
	return &mmodel.IdempotencyRecord{
		Key:         m.Key,
		RequestHash: m.RequestHash,
		Response:    m.Response,
		Status:      mmodel.IdempotencyStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,
	}
}
