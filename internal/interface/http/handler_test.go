package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	"github.com/oksasatya/shopdesk-api/internal/infrastructure/memory"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, email, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tokens[email] = token
	return nil
}

func (m *captureMailer) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type stubProvider struct{}

func (stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (stubProvider) Exchange(_ context.Context, code string) (entity.OAuthProfile, error) {
	if code != "good" {
		return entity.OAuthProfile{}, errors.New("bad code")
	}
	return entity.OAuthProfile{ProviderID: "g-1", Emails: []string{"oauth@example.com"}, EmailVerified: true, DisplayName: "Ola"}, nil
}

type server struct {
	engine *gin.Engine
	repo   *memory.UserRepository
	mailer *captureMailer
	jwt    *helpers.JWTManager
	oauth  *OAuthHandler
}

func newServer(t *testing.T) *server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := &server{
		repo:   memory.NewUserRepository(),
		mailer: &captureMailer{tokens: map[string]string{}},
		jwt:    helpers.NewJWTManager("handler-secret", 10*time.Minute, time.Hour),
	}
	roles := application.NewRoleService(s.repo, nil, logger, nil)
	auth := application.NewAuthService(s.repo, roles, s.jwt, s.mailer, nil, nil, logger, nil, time.Hour)
	users := application.NewUserService(s.repo, roles, avatarStore{}, nil, logger)
	admin := application.NewAdminService(s.repo, roles, nil, nil, logger)
	oauth := application.NewOAuthService(s.repo, stubProvider{}, roles, s.jwt, nil, nil, logger, nil)

	ah := NewAuthHandler(auth, users, logger)
	uh := NewUserHandler(users, auth, logger)
	adm := NewAdminHandler(admin, logger)
	s.oauth = NewOAuthHandler(oauth, logger, "", false, "")

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	api := r.Group("/api")
	requireAuth := middleware.Auth(roles, s.jwt)

	api.POST("/auth/register", ah.Register)
	api.POST("/auth/login", ah.Login)
	api.POST("/auth/logout", middleware.OptionalAuth(roles, s.jwt), ah.Logout)
	api.POST("/auth/refresh", ah.Refresh)
	api.POST("/auth/forgot-password", ah.ForgotPassword)
	api.POST("/auth/reset-password", ah.ResetPassword)
	api.GET("/auth/me", requireAuth, ah.Me)
	api.GET("/auth/google", s.oauth.Start)
	api.GET("/auth/google/callback", s.oauth.Callback)

	api.GET("/profile", requireAuth, uh.GetProfile)
	api.PUT("/profile", requireAuth, uh.UpdateProfile)
	api.PUT("/profile/password", requireAuth, uh.ChangePassword)
	api.POST("/profile/avatar", requireAuth, uh.UploadAvatar)

	adminGroup := api.Group("/admin/users", requireAuth, middleware.RequireRoles(entity.RoleAdmin))
	adminGroup.GET("", adm.List)
	adminGroup.GET("/search", adm.Search)
	adminGroup.GET("/:id", adm.Get)
	adminGroup.POST("", adm.Create)
	adminGroup.PUT("/:id", adm.Update)
	adminGroup.DELETE("/:id", adm.Delete)
	adminGroup.PATCH("/:id/business", adm.PromoteToBusiness)
	adminGroup.PATCH("/:id/temp-admin", adm.GrantTemporaryAdmin)

	s.engine = r
	return s
}

type avatarStore struct{}

func (avatarStore) Upload(_ context.Context, userID string, _ io.Reader, filename, _ string) (string, error) {
	return "https://cdn.example/" + userID + "/" + filename, nil
}

type envelope struct {
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Meta      json.RawMessage `json:"meta"`
	Error     json.RawMessage `json:"error"`
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *server) register(t *testing.T, email string) authResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Dana", "email": email, "password": "s3cret!pw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res authResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func (s *server) login(t *testing.T, email, password string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res authResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func (s *server) makeAdmin(t *testing.T, email string) string {
	t.Helper()
	res := s.register(t, email)
	_, err := s.repo.Update(context.Background(), res.User.ID, entity.UserPatch{IsAdmin: entity.Ptr(true)})
	require.NoError(t, err)
	return s.login(t, email, "s3cret!pw")
}
