package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role backs the closed role enumeration. Code is one of the role codes and
// rows are only created by the seeder.
type Role struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	IsSystem    bool             `json:"is_system"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RolePermission is one (role, feature) row of the permission table.
type RolePermission struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_role_permissions_role_feature" json:"role_id"`
	FeatureKey string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_role_permissions_role_feature" json:"feature_key"`
	CanRead    bool      `gorm:"not null" json:"can_read"`
	CanWrite   bool      `gorm:"not null" json:"can_write"`
	CanApprove bool      `gorm:"not null" json:"can_approve"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *RolePermission) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
