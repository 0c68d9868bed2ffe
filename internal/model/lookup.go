package model

import (
	"time"

	"sampletrack/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LookupKind names one of the reference tables. The value is also the URL
// segment used by the lookup endpoints.
type LookupKind string

const (
	LookupBrands            LookupKind = "brands"
	LookupSeasons           LookupKind = "seasons"
	LookupDivisions         LookupKind = "divisions"
	LookupProductCategories LookupKind = "product-categories"
	LookupSampleTypes       LookupKind = "sample-types"
)

var LookupKinds = []LookupKind{LookupBrands, LookupSeasons, LookupDivisions, LookupProductCategories, LookupSampleTypes}

type lookupMeta struct {
	table   string
	feature string
}

var lookupMetas = map[LookupKind]lookupMeta{
	LookupBrands:            {table: "brands", feature: domain.FeatureBrands},
	LookupSeasons:           {table: "seasons", feature: domain.FeatureSeasons},
	LookupDivisions:         {table: "divisions", feature: domain.FeatureDivisions},
	LookupProductCategories: {table: "product_categories", feature: domain.FeatureProductCategories},
	LookupSampleTypes:       {table: "sample_types", feature: domain.FeatureSampleTypes},
}

// ParseLookupKind accepts the URL form and the table form.
func ParseLookupKind(s string) (LookupKind, bool) {
	for _, k := range LookupKinds {
		if string(k) == s || lookupMetas[k].table == s {
			return k, true
		}
	}
	return "", false
}

func (k LookupKind) Table() string   { return lookupMetas[k].table }
func (k LookupKind) Feature() string { return lookupMetas[k].feature }

// Lookup is the shared row shape of every reference table. The table is
// chosen per query with db.Table(kind.Table()).
type Lookup struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lookup) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
