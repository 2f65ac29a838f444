package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/shopdesk-api/config"
	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/container"
	"github.com/oksasatya/shopdesk-api/internal/domain/repository"
	"github.com/oksasatya/shopdesk-api/internal/infrastructure/memory"
	mongoinfra "github.com/oksasatya/shopdesk-api/internal/infrastructure/mongodb"
	"github.com/oksasatya/shopdesk-api/internal/infrastructure/oauth"
	pginfra "github.com/oksasatya/shopdesk-api/internal/infrastructure/postgres"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/internal/router"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/mailer"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
	"github.com/oksasatya/shopdesk-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// Credential store
	users, closeStore, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open user store: %v", err)
	}
	closers = append(closers, closeStore)

	// Audit log (Postgres), optional
	if cfg.AuditEnabled {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		closers = append(closers, pool.Close)
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		container.SetPGPool(pool)
		container.SetAuditRepository(pginfra.NewAuditRepository(pool))
	}

	// Redis (rate limiting); the limiter fails open, so an unreachable Redis is only a warning
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	closers = append(closers, func() { _ = rdb.Close() })
	if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
		helpers.LogError(logger, "redis unreachable, rate limiting degraded", err, logrus.Fields{"addr": cfg.RedisAddr})
	}
	container.SetRedis(rdb)

	// Elasticsearch (admin search), optional
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		ectx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := helpers.EnsureIndex(ectx, es, cfg.ESUsersIndex); err != nil {
			helpers.LogError(logger, "ensure users index failed", err, nil)
		}
		cancel()
		container.SetES(es)
	}

	// GCS (avatars), optional
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		closers = append(closers, func() { _ = gcsClient.Close() })
		container.SetGCS(gcsClient)
	}

	// Mail delivery
	m, closeMailer, err := newMailer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init mailer: %v", err)
	}
	closers = append(closers, closeMailer)
	container.SetMailer(m)

	// Google sign-in, optional
	if cfg.GoogleOAuthEnabled() {
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		provider, err := oauth.NewGoogleProvider(octx, oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			IssuerURL:    cfg.GoogleIssuerURL,
		})
		cancel()
		if err != nil {
			log.Fatalf("failed to init google oauth: %v", err)
		}
		container.SetOAuthProvider(provider)
	}

	// JWT
	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, cfg.RegistrationTokenTTL, cfg.SessionTokenTTL)

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetUserRepository(users)
	container.SetJWT(jwtManager)
	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New("shopdesk")
		container.SetMetrics(appMetrics)
	}

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(middleware.Metrics(appMetrics))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) > 0 {
		r.Use(cors.New(corsCfg))
	}
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		helpers.LogInfo(logger, "server starting", logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver, "mail": cfg.MailDelivery})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

// openUserStore returns the configured credential store and its cleanup.
func openUserStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	case "mongo", "":
		client, err := mongoinfra.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(c)
		}
		users := mongoinfra.NewUserRepository(client.Database(cfg.MongoDB))
		ictx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
		defer cancel()
		if err := users.EnsureIndexes(ictx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return users, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// newMailer picks the delivery mode from MAIL_DELIVERY.
func newMailer(cfg *config.Config, logger *logrus.Logger) (application.Mailer, func(), error) {
	switch cfg.MailDelivery {
	case "direct":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			return nil, nil, errors.New("mailgun not configured")
		}
		return mailer.NewDirectMailer(cfg, mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)), func() {}, nil
	case "queue":
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return mailer.NewQueueMailer(cfg, pub), pub.Close, nil
	case "log", "":
		return mailer.NewLogMailer(cfg, logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown MAIL_DELIVERY %q", cfg.MailDelivery)
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
