package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	handlers "github.com/oksasatya/shopdesk-api/internal/interface/http"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

// AdminModule wires user management under /admin/users. Every route requires the admin role.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Roles   *application.RoleService
	JWT     *helpers.JWTManager
	RDB     redis.UniversalClient
	Metrics *metrics.Metrics
}

func NewAdminModule(h *handlers.AdminHandler, roles *application.RoleService, jwt *helpers.JWTManager, rdb redis.UniversalClient, m *metrics.Metrics) *AdminModule {
	return &AdminModule{Handler: h, Roles: roles, JWT: jwt, RDB: rdb, Metrics: m}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/admin/users")
	users.Use(
		middleware.Auth(m.Roles, m.JWT),
		middleware.RequireRoles(entity.RoleAdmin),
		middleware.RateLimit(m.RDB, middleware.RateLimitConfig{Max: 300, Window: time.Minute, Key: middleware.KeyByUserID(), Metrics: m.Metrics}),
	)
	{
		users.GET("", m.Handler.List)
		users.GET("/search", m.Handler.Search)
		users.GET("/:id", m.Handler.Get)
		users.POST("", m.Handler.Create)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
		users.PATCH("/:id/business", m.Handler.PromoteToBusiness)
		users.PATCH("/:id/temp-admin", m.Handler.GrantTemporaryAdmin)
	}
}
