// Package sessionrepo persists conversation session slots in PostgreSQL.
// Each row is one (identity, slot) pair; the engine composes a full session
// from the slots of one identity.
package sessionrepo

import "time"

// SessionSlotDTO is the database row for one session slot.
type SessionSlotDTO struct {
	Identity  string `gorm:"primaryKey;size:128"`
	Slot      string `gorm:"primaryKey;size:32"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName overrides GORM's default naming convention.
func (SessionSlotDTO) TableName() string {
	return "session_slots"
}
