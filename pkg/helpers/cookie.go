package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const OAuthStateCookie = "oauth_state"

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetOAuthState stores the CSRF state for an in-flight OAuth redirect.
func (m *Manager) SetOAuthState(c *gin.Context, state string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookie, state, int(ttl.Seconds()), "/", m.Domain, m.Secure, true)
}

// OAuthState returns the stored state, or "" when absent.
func (m *Manager) OAuthState(c *gin.Context) string {
	v, err := c.Cookie(OAuthStateCookie)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) ClearOAuthState(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookie, "", -1, "/", m.Domain, m.Secure, true)
}
