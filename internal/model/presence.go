package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SamplePresence is an advisory heartbeat row. It is live while
// ExpiresAt is after now; expired rows are ignored by reads.
type SamplePresence struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sample_presence_identity" json:"sample_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sample_presence_identity" json:"user_id"`
	Context    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_sample_presence_identity" json:"context"`
	UserName   string    `gorm:"type:varchar(255)" json:"user_name"`
	UserRole   string    `gorm:"type:varchar(50)" json:"user_role"`
	LockType   *string   `gorm:"type:varchar(32)" json:"lock_type"`
	LastSeenAt time.Time `gorm:"not null" json:"last_seen_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

func (SamplePresence) TableName() string { return "sample_presence" }

func (p *SamplePresence) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
