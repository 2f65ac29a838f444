package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/shopdesk-api/pkg/helpers"
)

func startOAuth(t *testing.T, s *server) (*http.Cookie, string) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	for _, c := range w.Result().Cookies() {
		if c.Name == helpers.OAuthStateCookie {
			assert.True(t, c.HttpOnly)
			assert.Equal(t, state, c.Value)
			return c, state
		}
	}
	t.Fatal("state cookie not set")
	return nil, ""
}

func callback(s *server, cookie *http.Cookie, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?"+query, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestOAuthCallbackSignsIn(t *testing.T) {
	s := newServer(t)
	cookie, state := startOAuth(t, s)

	w := callback(s, cookie, url.Values{"state": {state}, "code": {"good"}}.Encode())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res authResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "oauth@example.com", res.User.Email)
	assert.False(t, res.User.HasPassword)
	require.NotNil(t, res.User.OAuth)
	assert.Equal(t, "g-1", res.User.OAuth.GoogleID)
	assert.NotEmpty(t, res.Token)
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	s := newServer(t)
	cookie, state := startOAuth(t, s)

	assert.Equal(t, http.StatusBadRequest, callback(s, cookie, "state=forged&code=good").Code)
	assert.Equal(t, http.StatusBadRequest, callback(s, nil, "state="+state+"&code=good").Code)
}

func TestOAuthCallbackBadCode(t *testing.T) {
	s := newServer(t)
	cookie, state := startOAuth(t, s)
	w := callback(s, cookie, url.Values{"state": {state}, "code": {"bad"}}.Encode())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOAuthSuccessRedirect(t *testing.T) {
	s := newServer(t)
	s.oauth.SuccessRedirectURL = "https://app.example/signed-in"
	cookie, state := startOAuth(t, s)

	w := callback(s, cookie, url.Values{"state": {state}, "code": {"good"}}.Encode())
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example", loc.Host)
	assert.Empty(t, loc.RawQuery)
	frag, err := url.ParseQuery(loc.Fragment)
	require.NoError(t, err)
	assert.NotEmpty(t, frag.Get("token"))
}
