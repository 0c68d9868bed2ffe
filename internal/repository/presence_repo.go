package repository

import (
	"context"
	"time"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PresenceStore persists advisory presence rows. Reads take now so that
// expiry is evaluated lazily against the caller's clock.
type PresenceStore interface {
	Upsert(ctx context.Context, p *model.SamplePresence) error
	// Delete removes the caller's rows for a sample. An empty context removes
	// every context of that user on that sample.
	Delete(ctx context.Context, sampleID, userID uuid.UUID, presenceContext string) error
	ListActive(ctx context.Context, sampleIDs []uuid.UUID, now time.Time) ([]model.SamplePresence, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type presenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) PresenceStore {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) Upsert(ctx context.Context, p *model.SamplePresence) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sample_id"}, {Name: "user_id"}, {Name: "context"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "user_role", "lock_type", "last_seen_at", "expires_at"}),
	}).Create(p).Error
}

func (r *presenceRepository) Delete(ctx context.Context, sampleID, userID uuid.UUID, presenceContext string) error {
	q := GetDB(ctx, r.db).Where("sample_id = ? AND user_id = ?", sampleID, userID)
	if presenceContext != "" {
		q = q.Where("context = ?", presenceContext)
	}
	return q.Delete(&model.SamplePresence{}).Error
}

func (r *presenceRepository) ListActive(ctx context.Context, sampleIDs []uuid.UUID, now time.Time) ([]model.SamplePresence, error) {
	var rows []model.SamplePresence
	if len(sampleIDs) == 0 {
		return rows, nil
	}
	err := GetDB(ctx, r.db).
		Where("sample_id IN ? AND expires_at > ?", sampleIDs, now.UTC()).
		Order("last_seen_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *presenceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Where("expires_at <= ?", now.UTC()).Delete(&model.SamplePresence{})
	return res.RowsAffected, res.Error
}
