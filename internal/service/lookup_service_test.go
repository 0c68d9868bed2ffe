package service

import (
	"context"
	"testing"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/repository"
	"sampletrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLookupFixture(t *testing.T) (LookupService, StyleService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	roleRepo := repository.NewRoleRepository(db)
	cache := access.NewCache(roleRepo, time.Minute)
	audit := NewAuditService(repository.NewAuditRepository(db), log)
	require.NoError(t, NewRoleService(roleRepo, repository.NewTransactionManager(db), cache, audit, log).Seed(context.Background(), false))

	lookupRepo := repository.NewLookupRepository(db)
	return NewLookupService(lookupRepo, cache, audit),
		NewStyleService(repository.NewStyleRepository(db), lookupRepo, cache, audit)
}

func TestLookup_SeedIsIdempotent(t *testing.T) {
	svc, _ := newLookupFixture(t)
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	seasons, err := svc.List(ctx, "seasons", false)
	require.NoError(t, err)
	assert.Len(t, seasons, 3)
}

func TestLookup_WritesNeedFeatureWrite(t *testing.T) {
	svc, _ := newLookupFixture(t)
	ctx := context.Background()
	td := Actor{Role: domain.RoleTD}
	admin := Actor{Role: domain.RoleAdmin}

	_, err := svc.Create(ctx, td, "brands", LookupRequest{Code: "acme", Name: "Acme"})
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.FeatureBrands, fe.Feature)

	brand, err := svc.Create(ctx, admin, "brands", LookupRequest{Code: "acme", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "ACME", brand.Code)

	_, err = svc.Create(ctx, admin, "brands", LookupRequest{Code: "ACME", Name: "Again"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.List(ctx, "colours", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Deactivate(ctx, admin, "brands", brand.ID))
	active, err := svc.List(ctx, "brands", false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, "brands", true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestStyle_CreateValidatesLookups(t *testing.T) {
	lookups, styles := newLookupFixture(t)
	ctx := context.Background()
	admin := Actor{Role: domain.RoleAdmin}

	brand, err := lookups.Create(ctx, admin, "brands", LookupRequest{Code: "acme", Name: "Acme"})
	require.NoError(t, err)

	unknown := "00000000-0000-0000-0000-000000000001"
	_, err = styles.Create(ctx, admin, CreateStyleRequest{StyleNumber: "ST-9", BrandID: &unknown})
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := styles.Create(ctx, Actor{Role: domain.RolePD}, CreateStyleRequest{StyleNumber: "ST-9", StyleName: "Parka", BrandID: &brand.ID})
	require.NoError(t, err)
	require.NotNil(t, res.BrandID)
	assert.Equal(t, brand.ID, res.BrandID.String())

	_, err = styles.Create(ctx, admin, CreateStyleRequest{StyleNumber: "ST-9"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
