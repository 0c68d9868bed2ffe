package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Style is the style reference a sample is developed for.
type Style struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StyleNumber       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"style_number"`
	StyleName         string     `gorm:"type:varchar(255)" json:"style_name"`
	BrandID           *uuid.UUID `gorm:"type:uuid;index" json:"brand_id"`
	SeasonID          *uuid.UUID `gorm:"type:uuid;index" json:"season_id"`
	DivisionID        *uuid.UUID `gorm:"type:uuid" json:"division_id"`
	ProductCategoryID *uuid.UUID `gorm:"type:uuid;index" json:"product_category_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (s *Style) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Sample is one physical sample moving through the stage pipeline.
// CurrentStage is a stage registry key or nil before intake.
type Sample struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StyleID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"style_id"`
	Style           *Style     `gorm:"foreignKey:StyleID" json:"style,omitempty"`
	SampleTypeID    *uuid.UUID `gorm:"type:uuid" json:"sample_type_id"`
	CurrentStage    *string    `gorm:"type:varchar(32);index" json:"current_stage"`
	CurrentStatus   string     `gorm:"type:varchar(32);not null;index" json:"current_status"`
	SampleDueDenver *time.Time `json:"sample_due_denver"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (s *Sample) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// StageKey returns the current stage or "" before intake.
func (s *Sample) StageKey() string {
	if s.CurrentStage == nil {
		return ""
	}
	return *s.CurrentStage
}
