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

// UserModule wires the self-service profile routes.
// Protected: GET/PUT /api/profile, PUT /api/profile/password, POST /api/profile/avatar
type UserModule struct {
	Handler *handlers.UserHandler
	Roles   *application.RoleService
	JWT     *helpers.JWTManager
	RDB     redis.UniversalClient
	Metrics *metrics.Metrics
}

func NewUserModule(h *handlers.UserHandler, roles *application.RoleService, jwt *helpers.JWTManager, rdb redis.UniversalClient, m *metrics.Metrics) *UserModule {
	return &UserModule{Handler: h, Roles: roles, JWT: jwt, RDB: rdb, Metrics: m}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	profile := rg.Group("/profile")
	profile.Use(middleware.Auth(m.Roles, m.JWT))
	profile.Use(middleware.RateLimit(m.RDB, middleware.RateLimitConfig{Max: 120, Window: time.Minute, Key: middleware.KeyByUserID(), Metrics: m.Metrics}))
	{
		profile.GET("", m.Handler.GetProfile)
		profile.PUT("", m.Handler.UpdateProfile)
		profile.PUT("/password", m.Handler.ChangePassword)
		profile.POST("/avatar", m.Handler.UploadAvatar)
	}
}
