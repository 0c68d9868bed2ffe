package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticGrants []access.Grant

func (g staticGrants) LoadGrants(context.Context) ([]access.Grant, error) { return g, nil }

func newAuthRouter() *gin.Engine {
	r := testutil.SetupRouter()
	cache := access.NewCache(staticGrants{
		{Role: domain.RoleCosting, FeatureKey: domain.FeatureCosting, CanRead: true, CanWrite: true, CanApprove: true},
		{Role: domain.RoleMD, FeatureKey: domain.FeatureCosting, CanRead: true},
	}, 0)

	g := r.Group("", Authenticate([]byte(testutil.JWTSecret)))
	g.GET("/whoami", func(c *gin.Context) {
		a, ok := ActorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": a.UserID.String(), "role": a.Role, "name": a.Name})
	})
	g.GET("/users", RequireArea(access.AreaUsers, domain.ActionRead), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.POST("/costing", RequireFeature(cache, domain.FeatureCosting, domain.ActionApprove), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthenticate(t *testing.T) {
	r := newAuthRouter()
	id := uuid.New()

	w := testutil.DoRequest(r, http.MethodGet, "/whoami", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(r, http.MethodGet, "/whoami", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(r, http.MethodGet, "/whoami", nil, testutil.GenerateToken(id, domain.Role("GUEST"), "g"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(r, http.MethodGet, "/whoami", nil, testutil.GenerateToken(id, domain.RoleTD, "Tam"))
	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.ParseResponse(w)
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, "TD", body["role"])
	assert.Equal(t, "Tam", body["name"])
}

func TestAuthenticate_Cookie(t *testing.T) {
	r := newAuthRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: testutil.GenerateToken(uuid.New(), domain.RolePD, "p")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireArea_ListsAllowedRoles(t *testing.T) {
	r := newAuthRouter()

	w := testutil.DoRequest(r, http.MethodGet, "/users", nil, testutil.GenerateToken(uuid.New(), domain.RolePD, "p"))
	require.Equal(t, http.StatusForbidden, w.Code)
	details := testutil.ParseResponse(w)["details"].(map[string]interface{})
	assert.Equal(t, "users", details["feature"])
	assert.Equal(t, []interface{}{"SUPER_ADMIN", "ADMIN"}, details["allowed_roles"])

	w = testutil.DoRequest(r, http.MethodGet, "/users", nil, testutil.GenerateToken(uuid.New(), domain.RoleAdmin, "a"))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireFeature(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleCosting, http.StatusNoContent},
		{domain.RoleSuperAdmin, http.StatusNoContent},
		{domain.RoleMD, http.StatusForbidden},
		{domain.RoleFactory, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			w := testutil.DoRequest(r, http.MethodPost, "/costing", nil, testutil.GenerateToken(uuid.New(), tt.role, "x"))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				details := testutil.ParseResponse(w)["details"].(map[string]interface{})
				assert.Equal(t, []interface{}{"SUPER_ADMIN", "ADMIN", "COSTING"}, details["allowed_roles"])
			}
		})
	}
}
