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
	"gorm.io/gorm"
)

type sampleFixture struct {
	db      *gorm.DB
	svc     SampleService
	roles   RoleService
	cache   *access.Cache
	clock   *testutil.Clock
	events  *recordingPublisher
	pd      Actor
	factory Actor
	admin   Actor
}

func newSampleFixture(t *testing.T, scoped ...domain.Role) *sampleFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	roleRepo := repository.NewRoleRepository(db)
	tx := repository.NewTransactionManager(db)
	cache := access.NewCache(roleRepo, time.Minute)
	audit := NewAuditService(repository.NewAuditRepository(db), log)
	roles := NewRoleService(roleRepo, tx, cache, audit, log)
	require.NoError(t, roles.Seed(context.Background(), false))

	clock := testutil.NewClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	events := &recordingPublisher{}
	svc := NewSampleService(SampleDeps{
		Tx:          tx,
		Samples:     repository.NewSampleRepository(db),
		Styles:      repository.NewStyleRepository(db),
		Lookups:     repository.NewLookupRepository(db),
		Stages:      repository.NewStageRepository(db),
		Owners:      repository.NewOwnerRepository(db),
		Histories:   repository.NewHistoryRepository(db),
		Users:       repository.NewUserRepository(db),
		Cache:       cache,
		Audit:       audit,
		Events:      events,
		Log:         log,
		ScopedRoles: scoped,
		Now:         clock.Now,
	})

	pd := testutil.SeedUser(t, db, "pd", domain.RolePD)
	factory := testutil.SeedUser(t, db, "factory", domain.RoleFactory)
	admin := testutil.SeedUser(t, db, "admin", domain.RoleAdmin)
	return &sampleFixture{
		db: db, svc: svc, roles: roles, cache: cache, clock: clock, events: events,
		pd:      Actor{UserID: pd.ID, Role: domain.RolePD, Name: "pd"},
		factory: Actor{UserID: factory.ID, Role: domain.RoleFactory, Name: "factory"},
		admin:   Actor{UserID: admin.ID, Role: domain.RoleAdmin, Name: "admin"},
	}
}

func TestSample_CreateRequiresPDOrAdmin(t *testing.T) {
	f := newSampleFixture(t)
	ctx := context.Background()
	style := &model.Style{StyleNumber: "ST-1", StyleName: "Jacket"}
	require.NoError(t, f.db.Create(style).Error)

	_, err := f.svc.Create(ctx, f.factory, CreateSampleRequest{StyleID: style.ID.String()})
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.AllowedRoles, domain.RolePD)

	res, err := f.svc.Create(ctx, f.pd, CreateSampleRequest{StyleID: style.ID.String(), SampleDueDenver: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, res.CurrentStatus)
	assert.Nil(t, res.CurrentStage)
	require.NotNil(t, res.SampleDueDenver)
	assert.Equal(t, "2024-06-01", *res.SampleDueDenver)
	require.NotNil(t, res.Style)
	assert.Equal(t, "ST-1", res.Style.StyleNumber)

	_, err = f.svc.Create(ctx, f.admin, CreateSampleRequest{StyleID: style.ID.String(), SampleDueDenver: "06/01/2024"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSample_AdvanceThroughPipeline(t *testing.T) {
	f := newSampleFixture(t)
	ctx := context.Background()
	sample := testutil.SeedSample(t, f.db, "ST-2", nil)
	id := sample.ID.String()

	res, err := f.svc.Advance(ctx, f.pd, id, AdvanceSampleRequest{Note: "start"})
	require.NoError(t, err)
	require.NotNil(t, res.CurrentStage)
	assert.Equal(t, string(stage.PSI), *res.CurrentStage)
	assert.Equal(t, domain.StatusInProgress, res.CurrentStatus)

	_, err = f.svc.Advance(ctx, f.pd, id, AdvanceSampleRequest{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)

	rec, err := f.svc.UpdateStage(ctx, f.pd, id, "psi", map[string]any{
		"received_date": "2024-05-01",
		"sample_type":   "Proto",
	})
	require.NoError(t, err)
	assert.Empty(t, rec.Missing)
	assert.True(t, rec.CanApprove)

	f.clock.Advance(time.Minute)
	res, err = f.svc.Advance(ctx, f.pd, id, AdvanceSampleRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(stage.SampleDevelopment), *res.CurrentStage)

	// Only the factory approves sample development.
	_, err = f.svc.Advance(ctx, f.pd, id, AdvanceSampleRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	hist, err := f.svc.History(ctx, f.pd, id)
	require.NoError(t, err)
	assert.Len(t, hist.Transitions, 2)
	assert.Len(t, hist.Changes, 2)
}

func TestSample_AdvancePastLastStageDelivers(t *testing.T) {
	f := newSampleFixture(t)
	ctx := context.Background()
	sample := testutil.SeedSample(t, f.db, "ST-3", nil)
	last := string(stage.ShipmentToBrand)
	require.NoError(t, f.db.Model(sample).Updates(map[string]any{
		"current_stage": last, "current_status": domain.StatusInProgress,
	}).Error)

	_, err := f.svc.UpdateStage(ctx, f.pd, sample.ID.String(), last, map[string]any{
		"ship_date": "2024-05-02", "awb_number": "AWB-1",
	})
	require.NoError(t, err)

	res, err := f.svc.Advance(ctx, f.pd, sample.ID.String(), AdvanceSampleRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, res.CurrentStatus)
	assert.Equal(t, last, *res.CurrentStage)

	_, err = f.svc.Advance(ctx, f.pd, sample.ID.String(), AdvanceSampleRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Terminal samples still accept stage edits.
	_, err = f.svc.UpdateStage(ctx, f.pd, sample.ID.String(), last, map[string]any{"courier": "DHL"})
	assert.NoError(t, err)
}

func TestSample_UpdateStageMergesAndClears(t *testing.T) {
	f := newSampleFixture(t)
	ctx := context.Background()
	sample := testutil.SeedSample(t, f.db, "ST-4", nil)
	id := sample.ID.String()

	_, err := f.svc.UpdateStage(ctx, f.factory, id, "sample_development", map[string]any{
		"target_xfty_date": "2024-05-10",
		"factory_name":     "Unit 7",
	})
	require.NoError(t, err)

	rec, err := f.svc.UpdateStage(ctx, f.factory, id, "FACTORY_EXECUTION", map[string]any{
		"factory_name":     nil,
		"actual_xfty_date": "2024-05-12",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", rec.Fields["target_xfty_date"])
	assert.Equal(t, "2024-05-12", rec.Fields["actual_xfty_date"])
	assert.NotContains(t, rec.Fields, "factory_name")

	_, err = f.svc.UpdateStage(ctx, f.factory, id, "costing", map[string]any{"fob_price": "cheap"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdateStage(ctx, f.factory, id, "psi", map[string]any{"sample_id": "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdateStage(ctx, f.factory, id, "fitting", map[string]any{"a": "b"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	detail, err := f.svc.Get(ctx, f.factory, id)
	require.NoError(t, err)
	require.Len(t, detail.Stages, len(stage.All()))
	for _, st := range detail.Stages {
		if st.Stage == string(stage.SampleDevelopment) {
			assert.True(t, st.CanApprove)
			assert.Empty(t, st.Missing)
		}
		if st.Stage == string(stage.PSI) {
			assert.False(t, st.CanApprove)
			assert.ElementsMatch(t, []string{"received_date", "sample_type"}, st.Missing)
		}
	}
}

func TestSample_RevokedReadHidesStage(t *testing.T) {
	f := newSampleFixture(t)
	ctx := context.Background()
	sample := testutil.SeedSample(t, f.db, "ST-5", nil)

	roles, err := f.roles.ListRoles(ctx)
	require.NoError(t, err)
	var mdID string
	for _, r := range roles {
		if r.Code == string(domain.RoleMD) {
			mdID = r.ID
		}
	}
	require.NotEmpty(t, mdID)

	_, err = f.roles.UpdateRolePermissions(ctx, f.admin, mdID, UpdateRolePermissionsRequest{
		Permissions: []PermissionInput{
			{FeatureKey: domain.FeatureSamples, CanRead: true},
			{FeatureKey: domain.FeaturePCReview, CanRead: true, CanWrite: true, CanApprove: true},
		},
	})
	require.NoError(t, err)

	md := Actor{Role: domain.RoleMD, Name: "md"}
	detail, err := f.svc.Get(ctx, md, sample.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Stages, 1)
	assert.Equal(t, string(stage.PCReview), detail.Stages[0].Stage)

	_, err = f.svc.UpdateStage(ctx, md, sample.ID.String(), "costing", map[string]any{"currency": "USD"})
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.FeatureCosting, fe.Feature)
}

func TestSample_SetOwnerAndScopedList(t *testing.T) {
	f := newSampleFixture(t, domain.RoleFactory)
	ctx := context.Background()
	sample := testutil.SeedSample(t, f.db, "ST-6", nil)
	testutil.SeedSample(t, f.db, "ST-7", nil)
	id := sample.ID.String()

	list, total, err := f.svc.List(ctx, f.factory, SampleListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	_, err = f.svc.Get(ctx, f.factory, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	wrongRole := f.pd.UserID.String()
	_, err = f.svc.SetOwner(ctx, f.admin, id, SetOwnerRequest{RoleKey: "FACTORY", UserID: &wrongRole})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SetOwner(ctx, f.admin, id, SetOwnerRequest{RoleKey: "ADMIN", UserID: &wrongRole})
	assert.ErrorIs(t, err, domain.ErrValidation)

	factoryID := f.factory.UserID.String()
	owners, err := f.svc.SetOwner(ctx, f.admin, id, SetOwnerRequest{RoleKey: "FACTORY", UserID: &factoryID})
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, factoryID, owners[0].UserID)
	assert.Equal(t, "FACTORY", owners[0].RoleKey)

	list, total, err = f.svc.List(ctx, f.factory, SampleListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, id, list[0].ID)

	all, _, err := f.svc.List(ctx, f.pd, SampleListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owners, err = f.svc.SetOwner(ctx, f.admin, id, SetOwnerRequest{RoleKey: "FACTORY"})
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestSample_UpdateRecordsHistory(t *testing.T) {
	f := newSampleFixture(t)
	ctx := context.Background()
	sample := testutil.SeedSample(t, f.db, "ST-8", nil)
	id := sample.ID.String()

	status := domain.StatusOnHold
	notes := "waiting on fabric"
	res, err := f.svc.Update(ctx, f.pd, id, UpdateSampleRequest{CurrentStatus: &status, Notes: &notes, Note: "fabric delay"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnHold, res.CurrentStatus)

	// Same values produce no new history.
	_, err = f.svc.Update(ctx, f.pd, id, UpdateSampleRequest{CurrentStatus: &status})
	require.NoError(t, err)

	hist, err := f.svc.History(ctx, f.pd, id)
	require.NoError(t, err)
	assert.Len(t, hist.Changes, 2)
	require.Len(t, hist.Transitions, 1)
	assert.Equal(t, domain.StatusPending, hist.Transitions[0].FromStatus)
	assert.Equal(t, domain.StatusOnHold, hist.Transitions[0].ToStatus)
	assert.Equal(t, "fabric delay", hist.Transitions[0].Note)
	assert.Positive(t, f.events.count())
}
