package service

import (
	"context"
	"testing"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/model"
	"sampletrack/internal/repository"
	"sampletrack/internal/stage"
	"sampletrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type analyticsFixture struct {
	svc     AnalyticsService
	brandID string
}

// newAnalyticsFixture seeds four samples whose sample development records
// classify as early, on time, delay and pending on 2024-06-01.
func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	ctx := context.Background()

	roleRepo := repository.NewRoleRepository(db)
	cache := access.NewCache(roleRepo, time.Minute)
	audit := NewAuditService(repository.NewAuditRepository(db), log)
	require.NoError(t, NewRoleService(roleRepo, repository.NewTransactionManager(db), cache, audit, log).Seed(ctx, false))

	brand := &model.Lookup{Code: "ACME", Name: "Acme", IsActive: true}
	require.NoError(t, repository.NewLookupRepository(db).Create(ctx, model.LookupBrands, brand))

	dev, _ := stage.Lookup(string(stage.SampleDevelopment))
	stages := repository.NewStageRepository(db)
	dates := []struct {
		number string
		brand  bool
		actual string
	}{
		{"EARLY", true, "2024-05-08"},
		{"ONTIME", true, "2024-05-10"},
		{"LATE", false, "2024-05-12"},
	}
	for _, d := range dates {
		var brandID = &brand.ID
		if !d.brand {
			brandID = nil
		}
		s := testutil.SeedSample(t, db, d.number, brandID)
		require.NoError(t, stages.Upsert(ctx, dev, &model.StageRecord{
			SampleID: s.ID,
			Fields:   datatypes.JSONMap{"target_xfty_date": "2024-05-10", "actual_xfty_date": d.actual},
		}))
		if d.number == "EARLY" {
			due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, db.Model(&model.Sample{}).Where("id = ?", s.ID).Update("sample_due_denver", due).Error)
		}
	}
	testutil.SeedSample(t, db, "PENDING", nil)

	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return &analyticsFixture{
		svc:     NewAnalyticsService(repository.NewAnalyticsRepository(db), cache, now),
		brandID: brand.ID.String(),
	}
}

func TestAnalytics_SubmissionPerformance(t *testing.T) {
	f := newAnalyticsFixture(t)
	rep, err := f.svc.Performance(context.Background(), Actor{Role: domain.RoleTD}, MeasureSubmission, AnalyticsQuery{})
	require.NoError(t, err)

	s := rep.Summary
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Early)
	assert.Equal(t, 1, s.OnTime)
	assert.Equal(t, 1, s.Delay)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 3, s.Decided)
	assert.InDelta(t, 25.0, s.PercentOfTotal.Early, 0.01)
	assert.InDelta(t, 33.33, s.PercentOfDecided.Early, 0.01)
	assert.Len(t, rep.Rows, 4)
}

func TestAnalytics_BrandFilterAndDelivery(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	td := Actor{Role: domain.RoleTD}

	rep, err := f.svc.Performance(ctx, td, MeasureSubmission, AnalyticsQuery{BrandID: f.brandID})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 0, rep.Summary.Delay)

	overview, err := f.svc.Overview(ctx, td, AnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, overview.Submission.Summary.Total)
	assert.Equal(t, 1, overview.Delivery.Summary.Delay, "due date passed without brand receipt")
	assert.Equal(t, 3, overview.Delivery.Summary.Pending)
}

func TestAnalytics_RejectsBadFiltersAndRoles(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()

	_, err := f.svc.Performance(ctx, Actor{Role: domain.RoleTD}, MeasureSubmission, AnalyticsQuery{Month: "13"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Performance(ctx, Actor{Role: domain.RoleUnknown}, MeasureSubmission, AnalyticsQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = ParseMeasure("throughput")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAnalytics_Export(t *testing.T) {
	f := newAnalyticsFixture(t)
	file, name, err := f.svc.Export(context.Background(), Actor{Role: domain.RoleAdmin}, MeasureDelivery, AnalyticsQuery{})
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	assert.Contains(t, name, "delivery")
	assert.Equal(t, []string{"Summary", "Samples"}, file.GetSheetList())

	rows, err := file.GetRows("Samples")
	require.NoError(t, err)
	assert.Len(t, rows, 5, "header plus one row per sample")
}
