package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

type MetricsModule struct {
	Metrics *metrics.Metrics
	RDB     redis.UniversalClient
}

func NewMetricsModule(m *metrics.Metrics, rdb redis.UniversalClient) *MetricsModule {
	return &MetricsModule{Metrics: m, RDB: rdb}
}

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	// Public Prometheus endpoint, rate-limited per IP; private scrapers bypass the limit
	rl := middleware.RateLimit(m.RDB, middleware.RateLimitConfig{
		Max:     120,
		Window:  time.Minute,
		Key:     middleware.KeyByIP(),
		Allow:   middleware.AllowPrivateIP(),
		Metrics: m.Metrics,
	})
	rg.GET("/metrics", rl, gin.WrapH(m.Metrics.Handler()))
}
