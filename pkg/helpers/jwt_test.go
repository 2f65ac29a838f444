package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(clock *fakeClock) *JWTManager {
	return NewJWTManager("test-secret", 10*time.Minute, time.Hour).WithClock(clock.Now)
}

func TestJWTVerifyAroundExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)

	tok, exp, err := m.Issue("user-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), exp)

	clock.t = exp.Add(-time.Second)
	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	clock.t = exp.Add(time.Second)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTVerifyRejectsWrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	other := NewJWTManager("other-secret", time.Minute, time.Hour).WithClock(clock.Now)
	tok, _, err := other.IssueSession("user-1")
	require.NoError(t, err)

	m := newTestManager(clock)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.ParseIgnoringExpiry(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTVerifyRejectsNoneAlg(t *testing.T) {
	claims := &Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	m := newTestManager(&fakeClock{t: time.Now()})
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTParseIgnoringExpiryAcceptsExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	tok, _, err := m.IssueRegistration("user-2")
	require.NoError(t, err)

	clock.t = clock.t.Add(48 * time.Hour)
	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)

	claims, err := m.ParseIgnoringExpiry(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID)
}

func TestJWTDecodeUnverified(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	other := NewJWTManager("other-secret", time.Minute, time.Hour).WithClock(clock.Now)
	tok, _, err := other.IssueSession("user-3")
	require.NoError(t, err)

	claims, err := newTestManager(clock).DecodeUnverified(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-3", claims.UserID)

	_, err = newTestManager(clock).DecodeUnverified("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
