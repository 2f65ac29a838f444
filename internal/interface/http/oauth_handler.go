package handlers

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/response"
)

const oauthStateTTL = 10 * time.Minute

type OAuthHandler struct {
	OAuth   *application.OAuthService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
	// SuccessRedirectURL receives the token in its fragment; when empty the callback answers JSON.
	SuccessRedirectURL string
}

func NewOAuthHandler(oauth *application.OAuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool, successRedirectURL string) *OAuthHandler {
	return &OAuthHandler{
		OAuth:              oauth,
		Cookies:            helpers.NewCookie(cookieDomain, cookieSecure),
		Logger:             logger,
		SuccessRedirectURL: successRedirectURL,
	}
}

// Start GET /api/auth/google
func (h *OAuthHandler) Start(c *gin.Context) {
	state, err := helpers.RandomToken(24)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetOAuthState(c, state, oauthStateTTL)
	c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(state))
}

// Callback GET /api/auth/google/callback
func (h *OAuthHandler) Callback(c *gin.Context) {
	expected := h.Cookies.OAuthState(c)
	h.Cookies.ClearOAuthState(c)
	got := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		response.Error[any](c, http.StatusBadRequest, "invalid oauth state", nil)
		return
	}
	if e := c.Query("error"); e != "" {
		response.Error[any](c, http.StatusUnauthorized, "oauth sign-in failed", gin.H{"provider_error": e})
		return
	}

	res, err := h.OAuth.Complete(requestContext(c), c.Query("code"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	if h.SuccessRedirectURL != "" {
		c.Redirect(http.StatusFound, successRedirect(h.SuccessRedirectURL, res.Token))
		return
	}
	response.Success(c, http.StatusOK, toAuthResponse(res), "login successful", nil)
}

// successRedirect puts the token in the URL fragment so it never reaches server logs.
func successRedirect(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Fragment = url.Values{"token": {token}}.Encode()
	return u.String()
}
