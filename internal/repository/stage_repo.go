package repository

import (
	"context"

	"sampletrack/internal/model"
	"sampletrack/internal/stage"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StageRepository reads and writes the per-stage tables. Each call names the
// stage; the stage registry maps it to a table.
type StageRepository interface {
	Get(ctx context.Context, s stage.Stage, sampleID uuid.UUID) (*model.StageRecord, error)
	Upsert(ctx context.Context, s stage.Stage, rec *model.StageRecord) error
	ListBySample(ctx context.Context, sampleID uuid.UUID) (map[string]model.StageRecord, error)
}

type stageRepository struct {
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) StageRepository {
	return &stageRepository{db: db}
}

func (r *stageRepository) Get(ctx context.Context, s stage.Stage, sampleID uuid.UUID) (*model.StageRecord, error) {
	var rec model.StageRecord
	if err := GetDB(ctx, r.db).Table(s.Table).Where("sample_id = ?", sampleID).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// Upsert updates a loaded record in place and inserts a new one, keyed by
// sample_id.
func (r *stageRepository) Upsert(ctx context.Context, s stage.Stage, rec *model.StageRecord) error {
	if rec.ID != uuid.Nil {
		return GetDB(ctx, r.db).Table(s.Table).Where("id = ?", rec.ID).Updates(map[string]any{
			"fields":     rec.Fields,
			"updated_by": rec.UpdatedBy,
			"updated_at": rec.UpdatedAt,
		}).Error
	}
	return GetDB(ctx, r.db).Table(s.Table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sample_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_by", "updated_at"}),
	}).Create(rec).Error
}

func (r *stageRepository) ListBySample(ctx context.Context, sampleID uuid.UUID) (map[string]model.StageRecord, error) {
	out := make(map[string]model.StageRecord)
	for _, s := range stage.All() {
		rec, err := r.Get(ctx, s, sampleID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		out[string(s.Key)] = *rec
	}
	return out, nil
}
