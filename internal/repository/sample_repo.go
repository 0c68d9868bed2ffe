package repository

import (
	"context"
	"strings"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SampleFilter narrows the sample list. Zero values match everything.
type SampleFilter struct {
	BrandID  *uuid.UUID
	SeasonID *uuid.UUID
	Stage    string
	Status   string
	Query    string
	// OwnerUserID limits the list to samples where the user holds an owner row.
	OwnerUserID *uuid.UUID
	Offset      int
	Limit       int
}

type SampleRepository interface {
	Create(ctx context.Context, sample *model.Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Sample, error)
	List(ctx context.Context, f SampleFilter) ([]model.Sample, int64, error)
	Update(ctx context.Context, sample *model.Sample) error
}

type sampleRepository struct {
	db *gorm.DB
}

func NewSampleRepository(db *gorm.DB) SampleRepository {
	return &sampleRepository{db: db}
}

func (r *sampleRepository) Create(ctx context.Context, sample *model.Sample) error {
	return GetDB(ctx, r.db).Omit("Style").Create(sample).Error
}

func (r *sampleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	var s model.Sample
	if err := GetDB(ctx, r.db).Preload("Style").First(&s, "samples.id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sampleRepository) List(ctx context.Context, f SampleFilter) ([]model.Sample, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.Sample{}).
		Joins("JOIN styles ON styles.id = samples.style_id")

	if f.BrandID != nil {
		q = q.Where("styles.brand_id = ?", *f.BrandID)
	}
	if f.SeasonID != nil {
		q = q.Where("styles.season_id = ?", *f.SeasonID)
	}
	if f.Stage != "" {
		q = q.Where("samples.current_stage = ?", f.Stage)
	}
	if f.Status != "" {
		q = q.Where("LOWER(samples.current_status) = ?", strings.ToLower(f.Status))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(styles.style_number) LIKE ? OR LOWER(styles.style_name) LIKE ?", like, like)
	}
	if f.OwnerUserID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM sample_role_owners o WHERE o.sample_id = samples.id AND o.user_id = ?)", *f.OwnerUserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var samples []model.Sample
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Preload("Style").Order("samples.created_at desc").Find(&samples).Error; err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

func (r *sampleRepository) Update(ctx context.Context, sample *model.Sample) error {
	return GetDB(ctx, r.db).Omit("Style").Save(sample).Error
}
