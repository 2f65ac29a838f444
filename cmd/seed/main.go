package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/config"
	"github.com/oksasatya/shopdesk-api/internal/application"
	mongoinfra "github.com/oksasatya/shopdesk-api/internal/infrastructure/mongodb"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
)

// seed creates a permanent admin, or upgrades the account with that email.
// Values come from flags, then SEED_ADMIN_* env vars.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	name := flag.String("name", envOr("SEED_ADMIN_NAME", "Administrator"), "admin display name")
	email := flag.String("email", os.Getenv("SEED_ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password")
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("admin email and password are required (-email/-password or SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongoinfra.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	users := mongoinfra.NewUserRepository(client.Database(cfg.MongoDB))
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	roles := application.NewRoleService(users, nil, logger, nil)
	admin := application.NewAdminService(users, roles, nil, nil, logger)

	u, created, err := admin.EnsureAdmin(ctx, *name, *email, *password)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email, "created": created}).Info("admin seeded")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
