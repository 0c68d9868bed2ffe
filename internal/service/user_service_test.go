package service

import (
	"context"
	"testing"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/repository"
	"sampletrack/internal/stage"
	"sampletrack/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture(t *testing.T) (UserService, AuditService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	roleRepo := repository.NewRoleRepository(db)
	cache := access.NewCache(roleRepo, time.Minute)
	audit := NewAuditService(repository.NewAuditRepository(db), log)
	roles := NewRoleService(roleRepo, repository.NewTransactionManager(db), cache, audit, log)
	require.NoError(t, roles.Seed(context.Background(), false))

	svc := NewUserService(repository.NewUserRepository(db), cache, audit, TokenConfig{
		Secret: []byte(testutil.JWTSecret),
		TTL:    time.Hour,
	})
	return svc, audit
}

var superAdmin = Actor{Role: domain.RoleSuperAdmin, Name: "root"}

func TestUser_CreateAndLogin(t *testing.T) {
	svc, audit := newUserFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, superAdmin, CreateUserRequest{
		Username: "linh", Email: "Linh@Example.com", Name: "Linh", Password: "password1", Role: "pd",
	})
	require.NoError(t, err)
	assert.Equal(t, "linh@example.com", created.Email)
	assert.Equal(t, string(domain.RolePD), created.Role)
	assert.True(t, created.IsActive)

	_, err = svc.CreateUser(ctx, superAdmin, CreateUserRequest{
		Username: "linh", Email: "other@example.com", Password: "password1", Role: "PD",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Login(ctx, LoginUserRequest{Email: "linh@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	tok, err := svc.Login(ctx, LoginUserRequest{Email: "LINH@example.com", Password: "password1"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte(testutil.JWTSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, created.ID.String(), claims["sub"])
	assert.Equal(t, "PD", claims["role"])

	logs, total, err := audit.GetAuditLogs(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
}

func TestUser_OnlySuperAdminManagesSuperAdmins(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	admin := Actor{Role: domain.RoleAdmin, Name: "admin"}

	_, err := svc.CreateUser(ctx, admin, CreateUserRequest{
		Username: "boss", Email: "boss@example.com", Password: "password1", Role: "SUPER_ADMIN",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	root, err := svc.CreateUser(ctx, superAdmin, CreateUserRequest{
		Username: "boss", Email: "boss@example.com", Password: "password1", Role: "SUPER_ADMIN",
	})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, admin, root.ID.String(), UpdateUserRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, root.ID.String()), domain.ErrForbidden)

	_, err = svc.CreateUser(ctx, admin, CreateUserRequest{
		Username: "x", Email: "x@example.com", Password: "password1", Role: "GUEST",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUser_SelfProtection(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, superAdmin, CreateUserRequest{
		Username: "ops", Email: "ops@example.com", Password: "password1", Role: "ADMIN",
	})
	require.NoError(t, err)
	self := Actor{UserID: u.ID, Role: domain.RoleAdmin, Name: "ops"}

	inactive := false
	_, err = svc.UpdateUser(ctx, self, u.ID.String(), UpdateUserRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, svc.DeleteUser(ctx, self, u.ID.String()), domain.ErrValidation)

	_, err = svc.UpdateUser(ctx, superAdmin, u.ID.String(), UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginUserRequest{Email: "ops@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUser_MeListsMatrixAndOwnedStages(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, superAdmin, CreateUserRequest{
		Username: "cost", Email: "cost@example.com", Password: "password1", Role: "COSTING",
	})
	require.NoError(t, err)

	me, err := svc.Me(ctx, Actor{UserID: u.ID, Role: domain.RoleCosting})
	require.NoError(t, err)
	assert.Equal(t, "editor", me.Class)
	assert.Len(t, me.Permissions, len(domain.Features))
	require.Len(t, me.Stages, 1)
	assert.Equal(t, stage.Costing, me.Stages[0].Key)

	for _, p := range me.Permissions {
		if p.FeatureKey == domain.FeatureCosting {
			assert.True(t, p.CanApprove)
		}
		if p.FeatureKey == domain.FeatureUsers {
			assert.False(t, p.CanRead)
		}
	}
}
