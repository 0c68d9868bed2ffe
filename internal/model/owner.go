package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SampleRoleOwner names the user responsible for a role on a sample.
type SampleRoleOwner struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_sample_role_owners_sample_role" json:"sample_id"`
	RoleKey    string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_sample_role_owners_sample_role" json:"role_key"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AssignedBy *uuid.UUID `gorm:"type:uuid" json:"assigned_by"`
	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
}

func (o *SampleRoleOwner) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
