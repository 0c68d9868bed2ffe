package repository

import (
	"context"
	"time"

	"sampletrack/internal/stage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PerformanceRow is one sample joined with its style, brand, product category
// and the fields of a single stage record.
type PerformanceRow struct {
	SampleID        uuid.UUID
	StyleNumber     string
	BrandID         *uuid.UUID
	BrandName       *string
	SeasonID        *uuid.UUID
	ProductCategory *string
	SampleDueDenver *time.Time
	CreatedAt       time.Time
	StageFields     datatypes.JSONMap
}

// PerformanceQuery pushes the cheap equality filters into SQL.
type PerformanceQuery struct {
	BrandID  *uuid.UUID
	SeasonID *uuid.UUID
}

type AnalyticsRepository interface {
	// PerformanceRows lists every sample with the fields of stage s.
	PerformanceRows(ctx context.Context, s stage.Stage, q PerformanceQuery) ([]PerformanceRow, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) PerformanceRows(ctx context.Context, s stage.Stage, q PerformanceQuery) ([]PerformanceRow, error) {
	tx := GetDB(ctx, r.db).
		Table("samples").
		Select(`samples.id AS sample_id,
			styles.style_number AS style_number,
			styles.brand_id AS brand_id,
			brands.name AS brand_name,
			styles.season_id AS season_id,
			product_categories.name AS product_category,
			samples.sample_due_denver AS sample_due_denver,
			samples.created_at AS created_at,
			st.fields AS stage_fields`).
		Joins("JOIN styles ON styles.id = samples.style_id").
		Joins("LEFT JOIN brands ON brands.id = styles.brand_id").
		Joins("LEFT JOIN product_categories ON product_categories.id = styles.product_category_id").
		Joins("LEFT JOIN " + s.Table + " st ON st.sample_id = samples.id")

	if q.BrandID != nil {
		tx = tx.Where("styles.brand_id = ?", *q.BrandID)
	}
	if q.SeasonID != nil {
		tx = tx.Where("styles.season_id = ?", *q.SeasonID)
	}

	var rows []PerformanceRow
	if err := tx.Order("samples.created_at asc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
