package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/shopdesk-api/internal/application"
	handlers "github.com/oksasatya/shopdesk-api/internal/interface/http"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

// AuthModule wires the credential endpoints under /auth.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Roles   *application.RoleService
	JWT     *helpers.JWTManager
	RDB     redis.UniversalClient
	Metrics *metrics.Metrics
}

func NewAuthModule(h *handlers.AuthHandler, roles *application.RoleService, jwt *helpers.JWTManager, rdb redis.UniversalClient, m *metrics.Metrics) *AuthModule {
	return &AuthModule{Handler: h, Roles: roles, JWT: jwt, RDB: rdb, Metrics: m}
}

func (m *AuthModule) limit(max int, key middleware.KeyFunc) gin.HandlerFunc {
	return middleware.RateLimit(m.RDB, middleware.RateLimitConfig{Max: max, Window: time.Minute, Key: key, Metrics: m.Metrics})
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")

	// Public endpoints with IP-based rate limits
	auth.POST("/register", m.limit(10, middleware.KeyByIPAndPath()), m.Handler.Register)
	auth.POST("/login", m.limit(10, middleware.KeyByIPAndPath()), m.Handler.Login)
	auth.POST("/refresh", m.limit(60, middleware.KeyByIPAndPath()), m.Handler.Refresh)
	auth.POST("/forgot-password", m.limit(5, middleware.KeyByIPAndPath()), m.Handler.ForgotPassword)
	auth.POST("/reset-password", m.limit(30, middleware.KeyByIPAndPath()), m.Handler.ResetPassword)
	auth.POST("/logout", middleware.OptionalAuth(m.Roles, m.JWT), m.Handler.Logout)

	auth.GET("/me", middleware.Auth(m.Roles, m.JWT), m.limit(120, middleware.KeyByUserID()), m.Handler.Me)
}
