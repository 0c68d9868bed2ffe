package handler

import (
	"context"
	"net/http"
	"testing"

	"sampletrack/internal/app"
	"sampletrack/internal/config"
	"sampletrack/internal/domain"
	"sampletrack/internal/middleware"
	"sampletrack/internal/model"
	"sampletrack/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiFixture struct {
	db     *gorm.DB
	svcs   *app.Services
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.Presence.Backend = config.PresenceBackendDB

	svcs, err := app.New(ctx, cfg, db, nil, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })
	require.NoError(t, svcs.Roles.Seed(ctx, false))

	r := testutil.SetupRouter()
	api := r.Group("/api")
	users := NewUserHandler(svcs.Users, svcs.Cache, middleware.CookieConfig{}, log)
	users.RegisterPublicRoutes(api)

	protected := api.Group("", middleware.Authenticate([]byte(testutil.JWTSecret)))
	users.RegisterRoutes(protected)
	NewSampleHandler(svcs.Samples, svcs.Presence, log).RegisterRoutes(protected)

	return &apiFixture{db: db, svcs: svcs, router: r}
}

func (f *apiFixture) token(t *testing.T, username string, role domain.Role) string {
	t.Helper()
	u := testutil.SeedUser(t, f.db, username, role)
	return testutil.GenerateToken(u.ID, role, username)
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is an object: %v", body)
	return d
}

func TestSampleHandler_AdvanceNeedsApproveAndRequiredFields(t *testing.T) {
	f := newAPIFixture(t)
	pd := f.token(t, "pd", domain.RolePD)
	factory := f.token(t, "factory", domain.RoleFactory)
	sample := testutil.SeedSample(t, f.db, "ST-100", nil)
	base := "/api/samples/" + sample.ID.String()

	w := testutil.DoRequest(f.router, http.MethodPost, base+"/advance", nil, pd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "psi", data(t, testutil.ParseResponse(w))["current_stage"])

	w = testutil.DoRequest(f.router, http.MethodPost, base+"/advance", nil, factory)
	require.Equal(t, http.StatusForbidden, w.Code)
	details := testutil.ParseResponse(w)["details"].(map[string]interface{})
	assert.Equal(t, domain.FeaturePSI, details["feature"])
	assert.Equal(t, "approve", details["action"])
	assert.Equal(t, []interface{}{"SUPER_ADMIN", "ADMIN", "PD"}, details["allowed_roles"])

	w = testutil.DoRequest(f.router, http.MethodPost, base+"/advance", nil, pd)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, testutil.ParseResponse(w)["details"], 2)

	w = testutil.DoRequest(f.router, http.MethodPut, base+"/stages", map[string]interface{}{
		"stage":         "psi",
		"received_date": "2024-05-02",
		"sample_type":   "Proto",
	}, pd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fields := data(t, testutil.ParseResponse(w))["fields"].(map[string]interface{})
	assert.Equal(t, "Proto", fields["sample_type"])

	w = testutil.DoRequest(f.router, http.MethodPost, base+"/advance", map[string]string{"note": "psi done"}, pd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sample_development", data(t, testutil.ParseResponse(w))["current_stage"])
}

func TestSampleHandler_UpdateStageRequiresStageKey(t *testing.T) {
	f := newAPIFixture(t)
	pd := f.token(t, "pd", domain.RolePD)
	sample := testutil.SeedSample(t, f.db, "ST-200", nil)
	path := "/api/samples/" + sample.ID.String() + "/stages"

	w := testutil.DoRequest(f.router, http.MethodPut, path, map[string]interface{}{"received_date": "2024-05-02"}, pd)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(f.router, http.MethodPut, path, map[string]interface{}{"stage": "dyeing", "x": 1}, pd)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(f.router, http.MethodPut, "/api/samples/not-a-uuid/stages", map[string]interface{}{"stage": "psi"}, pd)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestSampleHandler_PresenceLocks(t *testing.T) {
	f := newAPIFixture(t)
	pd := f.token(t, "pd", domain.RolePD)
	factory := f.token(t, "factory", domain.RoleFactory)
	sample := testutil.SeedSample(t, f.db, "ST-300", nil)
	base := "/api/samples/" + sample.ID.String() + "/presence"

	w := testutil.DoRequest(f.router, http.MethodPost, base+"/heartbeat", map[string]string{"context": "sample_edit"}, pd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, data(t, testutil.ParseResponse(w))["conflict"])

	w = testutil.DoRequest(f.router, http.MethodPost, base+"/heartbeat", map[string]string{"context": "view"}, factory)
	require.Equal(t, http.StatusOK, w.Code)
	conflict := data(t, testutil.ParseResponse(w))["conflict"].(map[string]interface{})
	assert.Equal(t, "pd", conflict["user_name"])
	assert.Equal(t, "sample_edit", conflict["lock_type"])

	w = testutil.DoRequest(f.router, http.MethodGet, "/api/samples/presence?sample_ids="+sample.ID.String(), nil, factory)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, testutil.ParseResponse(w))[sample.ID.String()], 2)

	w = testutil.DoRequest(f.router, http.MethodPost, base+"/release", nil, pd)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(f.router, http.MethodGet, base+"/conflict", nil, factory)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, data(t, testutil.ParseResponse(w))["conflict"])

	w = testutil.DoRequest(f.router, http.MethodPost, base+"/heartbeat", map[string]string{"context": "dashboard"}, pd)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSampleHandler_GetUnknownSample(t *testing.T) {
	f := newAPIFixture(t)
	td := f.token(t, "td", domain.RoleTD)

	w := testutil.DoRequest(f.router, http.MethodGet, "/api/samples/00000000-0000-0000-0000-000000000042", nil, td)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	require.NoError(t, f.db.Model(&model.Sample{}).Count(&count).Error)
	assert.Zero(t, count)
}
