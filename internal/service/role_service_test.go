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

func newRoleFixture(t *testing.T) (RoleService, *access.Cache) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	roleRepo := repository.NewRoleRepository(db)
	// A long TTL proves that writes invalidate rather than expire.
	cache := access.NewCache(roleRepo, time.Hour)
	audit := NewAuditService(repository.NewAuditRepository(db), log)
	svc := NewRoleService(roleRepo, repository.NewTransactionManager(db), cache, audit, log)
	require.NoError(t, svc.Seed(context.Background(), false))
	return svc, cache
}

func roleID(t *testing.T, svc RoleService, code domain.Role) string {
	t.Helper()
	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	for _, r := range roles {
		if r.Code == string(code) {
			return r.ID
		}
	}
	t.Fatalf("role %s not seeded", code)
	return ""
}

func TestRole_SeedCreatesEveryRole(t *testing.T) {
	svc, _ := newRoleFixture(t)
	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, len(domain.AllRoles))

	perms, err := svc.GetRolePermissions(context.Background(), roleID(t, svc, domain.RoleCosting))
	require.NoError(t, err)
	assert.Len(t, perms.Permissions, len(domain.Features))
}

func TestRole_UpdateInvalidatesCache(t *testing.T) {
	svc, cache := newRoleFixture(t)
	ctx := context.Background()
	admin := Actor{Role: domain.RoleSuperAdmin}

	require.NoError(t, cache.Authorize(ctx, domain.RoleTD, domain.FeaturePSI, domain.ActionRead))

	_, err := svc.UpdateRolePermissions(ctx, admin, roleID(t, svc, domain.RoleTD), UpdateRolePermissionsRequest{
		Permissions: []PermissionInput{{FeatureKey: "samples", CanRead: true}},
	})
	require.NoError(t, err)

	err = cache.Authorize(ctx, domain.RoleTD, domain.FeaturePSI, domain.ActionRead)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.NoError(t, cache.Authorize(ctx, domain.RoleTD, domain.FeatureSamples, domain.ActionRead))
}

func TestRole_UpdateValidatesFeatures(t *testing.T) {
	svc, _ := newRoleFixture(t)
	ctx := context.Background()
	id := roleID(t, svc, domain.RoleMD)

	_, err := svc.UpdateRolePermissions(ctx, Actor{Role: domain.RoleAdmin}, id, UpdateRolePermissionsRequest{
		Permissions: []PermissionInput{
			{FeatureKey: "INVOICES", CanRead: true},
			{FeatureKey: domain.FeaturePSI},
			{FeatureKey: "psi"},
		},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)

	_, err = svc.GetRolePermissions(ctx, "00000000-0000-0000-0000-000000000009")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRole_SeedKeepsEditsUnlessOverwrite(t *testing.T) {
	svc, cache := newRoleFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateRolePermissions(ctx, Actor{Role: domain.RoleAdmin}, roleID(t, svc, domain.RolePD), UpdateRolePermissionsRequest{
		Permissions: []PermissionInput{{FeatureKey: domain.FeaturePSI, CanRead: true}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Seed(ctx, false))
	err = cache.Authorize(ctx, domain.RolePD, domain.FeaturePSI, domain.ActionApprove)
	assert.ErrorIs(t, err, domain.ErrForbidden, "existing row kept")

	require.NoError(t, svc.Seed(ctx, true))
	assert.NoError(t, cache.Authorize(ctx, domain.RolePD, domain.FeaturePSI, domain.ActionApprove))
}
