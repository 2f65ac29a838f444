package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SESSION_TTL", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 10*time.Minute, cfg.RegistrationTokenTTL)
	assert.Equal(t, time.Hour, cfg.SessionTokenTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.False(t, cfg.GoogleOAuthEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("JWT_SESSION_TTL", "30m")
	t.Setenv("AUDIT_ENABLED", "notabool")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg := Load()

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.SessionTokenTTL)
	assert.False(t, cfg.AuditEnabled, "invalid bool falls back to default")
	assert.True(t, cfg.GoogleOAuthEnabled())
}

func TestSplitLists(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " https://a.example , ,https://b.example",
		ElasticsearchAddrs: "",
	}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	assert.Empty(t, cfg.ESAddrs())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "audit", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/audit?sslmode=disable", cfg.PostgresDSN())
}
