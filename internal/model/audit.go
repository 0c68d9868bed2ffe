package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionLogin             = "LOGIN"
	ActionCreateUser        = "CREATE_USER"
	ActionUpdateUser        = "UPDATE_USER"
	ActionDeleteUser        = "DELETE_USER"
	ActionCreateSample      = "CREATE_SAMPLE"
	ActionUpdateSample      = "UPDATE_SAMPLE"
	ActionUpdateStage       = "UPDATE_STAGE"
	ActionAdvanceStage      = "ADVANCE_STAGE"
	ActionSetOwner          = "SET_SAMPLE_OWNER"
	ActionUpdatePermissions = "UPDATE_ROLE_PERMISSIONS"
	ActionCreateLookup      = "CREATE_LOOKUP"
	ActionUpdateLookup      = "UPDATE_LOOKUP"
	ActionDeactivateLookup  = "DEACTIVATE_LOOKUP"
	ActionCreateStyle       = "CREATE_STYLE"
)

// AuditLog tracks who changed what. Rows are never updated or deleted.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	User       *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string            `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string            `gorm:"type:varchar(50)" json:"entity_type"`
	EntityID   string            `gorm:"type:varchar(64);index" json:"entity_id"`
	Details    datatypes.JSONMap `json:"details"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// SampleHistory is one field change on a sample or one of its stage records.
// Stage is empty for sample-level fields.
type SampleHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"sample_id"`
	Stage     string     `gorm:"type:varchar(32)" json:"stage"`
	FieldKey  string     `gorm:"type:varchar(64);not null" json:"field_key"`
	OldValue  *string    `gorm:"type:text" json:"old_value"`
	NewValue  *string    `gorm:"type:text" json:"new_value"`
	ChangedBy *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	ChangedAt time.Time  `gorm:"not null;index" json:"changed_at"`
}

func (SampleHistory) TableName() string { return "sample_history" }

func (h *SampleHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// StatusTransition records a change of stage or status.
type StatusTransition struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"sample_id"`
	FromStage  *string    `gorm:"type:varchar(32)" json:"from_stage"`
	ToStage    *string    `gorm:"type:varchar(32)" json:"to_stage"`
	FromStatus string     `gorm:"type:varchar(32)" json:"from_status"`
	ToStatus   string     `gorm:"type:varchar(32)" json:"to_status"`
	Note       string     `gorm:"type:text" json:"note"`
	ChangedBy  *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	ChangedAt  time.Time  `gorm:"not null;index" json:"changed_at"`
}

func (t *StatusTransition) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
