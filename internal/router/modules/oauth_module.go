package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/shopdesk-api/internal/interface/http"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

// OAuthModule wires Google sign-in. Registered only when a provider is configured.
type OAuthModule struct {
	Handler *handlers.OAuthHandler
	RDB     redis.UniversalClient
	Metrics *metrics.Metrics
}

func NewOAuthModule(h *handlers.OAuthHandler, rdb redis.UniversalClient, m *metrics.Metrics) *OAuthModule {
	return &OAuthModule{Handler: h, RDB: rdb, Metrics: m}
}

func (m *OAuthModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.RDB, middleware.RateLimitConfig{Max: 30, Window: time.Minute, Key: middleware.KeyByIPAndPath(), Metrics: m.Metrics})
	rg.GET("/auth/google", rl, m.Handler.Start)
	rg.GET("/auth/google/callback", rl, m.Handler.Callback)
}
