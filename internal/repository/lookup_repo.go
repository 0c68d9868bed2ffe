package repository

import (
	"context"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LookupRepository interface {
	List(ctx context.Context, kind model.LookupKind, activeOnly bool) ([]model.Lookup, error)
	GetByID(ctx context.Context, kind model.LookupKind, id uuid.UUID) (*model.Lookup, error)
	GetByCode(ctx context.Context, kind model.LookupKind, code string) (*model.Lookup, error)
	Create(ctx context.Context, kind model.LookupKind, l *model.Lookup) error
	Update(ctx context.Context, kind model.LookupKind, l *model.Lookup) error
}

type lookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) List(ctx context.Context, kind model.LookupKind, activeOnly bool) ([]model.Lookup, error) {
	q := GetDB(ctx, r.db).Table(kind.Table())
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []model.Lookup
	if err := q.Order("name asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lookupRepository) GetByID(ctx context.Context, kind model.LookupKind, id uuid.UUID) (*model.Lookup, error) {
	var l model.Lookup
	if err := GetDB(ctx, r.db).Table(kind.Table()).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *lookupRepository) GetByCode(ctx context.Context, kind model.LookupKind, code string) (*model.Lookup, error) {
	var l model.Lookup
	if err := GetDB(ctx, r.db).Table(kind.Table()).Where("code = ?", code).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *lookupRepository) Create(ctx context.Context, kind model.LookupKind, l *model.Lookup) error {
	return GetDB(ctx, r.db).Table(kind.Table()).Create(l).Error
}

func (r *lookupRepository) Update(ctx context.Context, kind model.LookupKind, l *model.Lookup) error {
	return GetDB(ctx, r.db).Table(kind.Table()).Save(l).Error
}
