package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/shopdesk-api/internal/application"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newServer(t)
	s.register(t, "user@example.com")
	token := s.login(t, "user@example.com", "s3cret!pw")

	w, env := s.do(t, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, application.MsgForbidden, env.Message)

	w, _ = s.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUserLifecycle(t *testing.T) {
	s := newServer(t)
	adminToken := s.makeAdmin(t, "admin@example.com")

	w, env := s.do(t, http.MethodPost, "/api/admin/users", adminToken, gin.H{
		"name": "Biz Owner", "email": "biz@example.com", "password": "b1z!owner",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created userResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.IsUser)
	assert.False(t, created.IsBusiness)

	w, env = s.do(t, http.MethodGet, "/api/admin/users?page=1&limit=1", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page application.Page
	require.NoError(t, json.Unmarshal(env.Meta, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Limit)

	w, env = s.do(t, http.MethodPatch, "/api/admin/users/"+created.ID+"/business", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var promoted userResponse
	require.NoError(t, json.Unmarshal(env.Data, &promoted))
	assert.True(t, promoted.IsBusiness)
	assert.True(t, promoted.IsUser)

	w, env = s.do(t, http.MethodPut, "/api/admin/users/"+created.ID, adminToken, gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated userResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsBusiness)

	w, _ = s.do(t, http.MethodDelete, "/api/admin/users/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/admin/users/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	s := newServer(t)
	adminToken := s.makeAdmin(t, "admin@example.com")

	w, env := s.do(t, http.MethodGet, "/api/auth/me", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me userResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))

	w, env = s.do(t, http.MethodDelete, "/api/admin/users/"+me.ID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "you cannot delete your own account", env.Message)
}

func TestAdminTemporaryAdmin(t *testing.T) {
	s := newServer(t)
	adminToken := s.makeAdmin(t, "admin@example.com")
	target := s.register(t, "temp@example.com")

	w, _ := s.do(t, http.MethodPatch, "/api/admin/users/"+target.User.ID+"/temp-admin", adminToken, gin.H{"duration": "2days"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodPatch, "/api/admin/users/"+target.User.ID+"/temp-admin", adminToken, gin.H{"duration": "1week"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u userResponse
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.True(t, u.IsAdmin)
	require.NotNil(t, u.TempAdminExpiry)

	// the grantee can now reach admin routes
	token := s.login(t, "temp@example.com", "s3cret!pw")
	w, _ = s.do(t, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminBadIDAndSearch(t *testing.T) {
	s := newServer(t)
	adminToken := s.makeAdmin(t, "admin@example.com")

	w, env := s.do(t, http.MethodGet, "/api/admin/users/not-an-id", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid user id", env.Message)

	w, _ = s.do(t, http.MethodGet, "/api/admin/users/search?q=", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/admin/users/search?q=dana", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, string(env.Meta))
}
