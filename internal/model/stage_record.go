package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StageRecord holds the per-stage form of a sample. Every stage table shares
// this shape; the table is chosen with db.Table(stage.Table).
type StageRecord struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID  uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"sample_id"`
	Fields    datatypes.JSONMap `json:"fields"`
	UpdatedBy *uuid.UUID        `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (r *StageRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
