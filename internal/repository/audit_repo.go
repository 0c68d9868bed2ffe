package repository

import (
	"context"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is insert and list only.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, offset, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, offset, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// HistoryRepository stores sample field history and status transitions.
// Both are append-only.
type HistoryRepository interface {
	AddChanges(ctx context.Context, changes []model.SampleHistory) error
	AddTransition(ctx context.Context, t *model.StatusTransition) error
	ListChanges(ctx context.Context, sampleID uuid.UUID) ([]model.SampleHistory, error)
	ListTransitions(ctx context.Context, sampleID uuid.UUID) ([]model.StatusTransition, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) AddChanges(ctx context.Context, changes []model.SampleHistory) error {
	if len(changes) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&changes).Error
}

func (r *historyRepository) AddTransition(ctx context.Context, t *model.StatusTransition) error {
	return GetDB(ctx, r.db).Create(t).Error
}

func (r *historyRepository) ListChanges(ctx context.Context, sampleID uuid.UUID) ([]model.SampleHistory, error) {
	var rows []model.SampleHistory
	if err := GetDB(ctx, r.db).Where("sample_id = ?", sampleID).Order("changed_at asc, field_key asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *historyRepository) ListTransitions(ctx context.Context, sampleID uuid.UUID) ([]model.StatusTransition, error) {
	var rows []model.StatusTransition
	if err := GetDB(ctx, r.db).Where("sample_id = ?", sampleID).Order("changed_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
