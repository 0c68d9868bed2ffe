package repository

import (
	"context"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OwnerRepository interface {
	List(ctx context.Context, sampleID uuid.UUID) ([]model.SampleRoleOwner, error)
	Set(ctx context.Context, owner *model.SampleRoleOwner) error
	Clear(ctx context.Context, sampleID uuid.UUID, roleKey string) error
}

type ownerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) OwnerRepository {
	return &ownerRepository{db: db}
}

func (r *ownerRepository) List(ctx context.Context, sampleID uuid.UUID) ([]model.SampleRoleOwner, error) {
	var owners []model.SampleRoleOwner
	if err := GetDB(ctx, r.db).Preload("User").Where("sample_id = ?", sampleID).Order("role_key asc").Find(&owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}

// Set replaces the owner of (sample, role).
func (r *ownerRepository) Set(ctx context.Context, owner *model.SampleRoleOwner) error {
	return GetDB(ctx, r.db).Omit("User").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sample_id"}, {Name: "role_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "assigned_by", "assigned_at"}),
	}).Create(owner).Error
}

func (r *ownerRepository) Clear(ctx context.Context, sampleID uuid.UUID, roleKey string) error {
	return GetDB(ctx, r.db).Where("sample_id = ? AND role_key = ?", sampleID, roleKey).Delete(&model.SampleRoleOwner{}).Error
}
