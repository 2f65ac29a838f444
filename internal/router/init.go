package router

import (
	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/container"
	"github.com/oksasatya/shopdesk-api/internal/infrastructure/search"
	"github.com/oksasatya/shopdesk-api/internal/infrastructure/storage"
	handlers "github.com/oksasatya/shopdesk-api/internal/interface/http"
	"github.com/oksasatya/shopdesk-api/internal/router/modules"
)

// Services are the application services shared by the route modules.
type Services struct {
	Roles *application.RoleService
	Auth  *application.AuthService
	OAuth *application.OAuthService
	Users *application.UserService
	Admin *application.AdminService
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	m := container.GetMetrics()
	users := container.GetUserRepository()
	audit := container.GetAuditRepository()
	jwt := container.GetJWT()

	var indexer application.UserIndexer
	if es := container.GetES(); es != nil {
		indexer = search.NewUserIndexer(es, cfg.ESUsersIndex)
	}
	var avatars application.AvatarStore
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		avatars = storage.NewAvatarStore(gcs, cfg.GCSBucket)
	}

	roles := application.NewRoleService(users, audit, logger, m)
	s := Services{
		Roles: roles,
		Auth:  application.NewAuthService(users, roles, jwt, container.GetMailer(), indexer, audit, logger, m, cfg.ResetTokenTTL),
		Users: application.NewUserService(users, roles, avatars, indexer, logger),
		Admin: application.NewAdminService(users, roles, indexer, audit, logger),
	}
	if p := container.GetOAuthProvider(); p != nil {
		s.OAuth = application.NewOAuthService(users, p, roles, jwt, indexer, audit, logger, m)
	}
	return s
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()
	rdb := container.GetRedis()
	m := container.GetMetrics()
	svc := buildServices()

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, svc.Users, logger), svc.Roles, jwt, rdb, m))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc.Users, svc.Auth, logger), svc.Roles, jwt, rdb, m))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(svc.Admin, logger), svc.Roles, jwt, rdb, m))
	if svc.OAuth != nil {
		h := handlers.NewOAuthHandler(svc.OAuth, logger, cfg.CookieDomain, cfg.CookieSecure, cfg.OAuthSuccessRedirectURL)
		r.Add(modules.NewOAuthModule(h, rdb, m))
	}
	if cfg.MetricsEnabled && m != nil {
		r.Add(modules.NewMetricsModule(m, rdb))
	}
}
