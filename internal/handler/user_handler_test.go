package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"sampletrack/internal/domain"
	"sampletrack/internal/service"
	"sampletrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_LoginThenMe(t *testing.T) {
	f := newAPIFixture(t)
	_, err := f.svcs.Users.CreateUser(context.Background(), service.Actor{Role: domain.RoleSuperAdmin}, service.CreateUserRequest{
		Username: "md", Email: "md@example.com", Name: "Mai", Password: "password1", Role: "MD",
	})
	require.NoError(t, err)

	w := testutil.DoRequest(f.router, http.MethodPost, "/api/login", map[string]string{"email": "md@example.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(f.router, http.MethodPost, "/api/login", map[string]string{"email": "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(f.router, http.MethodPost, "/api/login", map[string]string{"email": "md@example.com", "password": "password1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Set-Cookie"), "access_token="))
	token, _ := data(t, testutil.ParseResponse(w))["token"].(string)
	require.NotEmpty(t, token)

	w = testutil.DoRequest(f.router, http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := data(t, testutil.ParseResponse(w))
	assert.Equal(t, "editor", me["class"])
	assert.Equal(t, "Mai", me["user"].(map[string]interface{})["name"])
	assert.Len(t, me["owned_stages"], 1)
}

func TestUserHandler_UsersAreaIsAdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	pd := f.token(t, "pd", domain.RolePD)
	admin := f.token(t, "admin", domain.RoleAdmin)

	w := testutil.DoRequest(f.router, http.MethodGet, "/api/users", nil, pd)
	require.Equal(t, http.StatusForbidden, w.Code)
	details := testutil.ParseResponse(w)["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"SUPER_ADMIN", "ADMIN"}, details["allowed_roles"])

	w = testutil.DoRequest(f.router, http.MethodGet, "/api/users", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(f.router, http.MethodPost, "/api/users", map[string]string{
		"username": "boss", "email": "boss@example.com", "password": "password1", "role": "SUPER_ADMIN",
	}, admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
