// Package audit is the Store Adapter's repository for the audit_log
// relation supplemented in SPEC_FULL.md §C.1 — one row per Ledger
// Writer action, written in the same transaction as the movement it
// describes.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/ironvault/walletledger/internal/mmodel"
)

// LogEntryPostgreSQLModel mirrors the audit_log columns.
type LogEntryPostgreSQLModel struct {
	ID            string
	TransactionID string
	Action        string
	Actor         *string
	Payload       []byte
	CreatedAt     time.Time
}

func (m *LogEntryPostgreSQLModel) FromEntity(e *mmodel.AuditLogEntry) {
	*m = LogEntryPostgreSQLModel{
		ID:            e.ID.String(),
		TransactionID: e.TransactionID.String(),
		Action:        string(e.Action),
		Actor:         e.Actor,
		Payload:       e.Payload,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *LogEntryPostgreSQLModel) ToEntity() *mmodel.AuditLogEntry {
	return &mmodel.AuditLogEntry{
		ID:            uuid.MustParse(m.ID),
		TransactionID: uuid.MustParse(m.TransactionID),
		Action:        mmodel.TransactionType(m.Action),
		Actor:         m.Actor,
		Payload:       m.Payload,
		CreatedAt:     m.CreatedAt,
	}
}
