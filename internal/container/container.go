package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/config"
	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/domain/repository"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient redis.UniversalClient
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager
	appMetrics *metrics.Metrics

	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository

	mailer        application.Mailer
	oauthProvider application.OAuthProvider
)

func SetConfig(c *config.Config)       { cfg = c }
func GetConfig() *config.Config        { return cfg }
func SetLogger(l *logrus.Logger)       { logger = l }
func GetLogger() *logrus.Logger        { return logger }
func SetPGPool(p *pgxpool.Pool)        { pgPool = p }
func GetPGPool() *pgxpool.Pool         { return pgPool }
func SetRedis(r redis.UniversalClient) { redisClient = r }
func GetRedis() redis.UniversalClient  { return redisClient }
func SetGCS(s *storage.Client)         { gcsClient = s }
func GetGCS() *storage.Client          { return gcsClient }
func SetES(c *elasticsearch.Client)    { esClient = c }
func GetES() *elasticsearch.Client     { return esClient }
func SetJWT(m *helpers.JWTManager)     { jwtManager = m }
func GetJWT() *helpers.JWTManager      { return jwtManager }
func SetMetrics(m *metrics.Metrics)    { appMetrics = m }

// GetMetrics may return nil; *metrics.Metrics methods are nil-safe.
func GetMetrics() *metrics.Metrics { return appMetrics }

func SetUserRepository(r repository.UserRepository) { userRepo = r }
func GetUserRepository() repository.UserRepository  { return userRepo }

// SetAuditRepository installs the audit sink. Leave unset to disable auditing.
func SetAuditRepository(r repository.AuditRepository) { auditRepo = r }
func GetAuditRepository() repository.AuditRepository  { return auditRepo }

func SetMailer(m application.Mailer)               { mailer = m }
func GetMailer() application.Mailer                { return mailer }
func SetOAuthProvider(p application.OAuthProvider) { oauthProvider = p }
func GetOAuthProvider() application.OAuthProvider  { return oauthProvider }
