package models

import "time"

// Settlement marks a session whose completion has been written to the ledger.
// Its primary key doubles as the idempotency key for retried completion writes.
type Settlement struct {
	SessionID   string `gorm:"primaryKey;size:64"`
	ProcessedAt time.Time
}
