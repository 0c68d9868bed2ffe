package repository

import (
	"context"
	"strings"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StyleRepository interface {
	Create(ctx context.Context, style *model.Style) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Style, error)
	GetByNumber(ctx context.Context, number string) (*model.Style, error)
	List(ctx context.Context, query string, offset, limit int) ([]model.Style, int64, error)
}

type styleRepository struct {
	db *gorm.DB
}

func NewStyleRepository(db *gorm.DB) StyleRepository {
	return &styleRepository{db: db}
}

func (r *styleRepository) Create(ctx context.Context, style *model.Style) error {
	return GetDB(ctx, r.db).Create(style).Error
}

func (r *styleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Style, error) {
	var s model.Style
	if err := GetDB(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *styleRepository) GetByNumber(ctx context.Context, number string) (*model.Style, error) {
	var s model.Style
	if err := GetDB(ctx, r.db).First(&s, "style_number = ?", number).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *styleRepository) List(ctx context.Context, query string, offset, limit int) ([]model.Style, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.Style{})
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(style_number) LIKE ? OR LOWER(style_name) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var styles []model.Style
	if err := q.Order("style_number asc").Offset(offset).Limit(limit).Find(&styles).Error; err != nil {
		return nil, 0, err
	}
	return styles, total, nil
}
