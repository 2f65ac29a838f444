package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// JWTManager issues and validates HS256 bearer tokens carrying a user id claim.
// The secret is fixed at construction; rotating it invalidates every outstanding token.
type JWTManager struct {
	Secret          []byte
	RegistrationTTL time.Duration
	SessionTTL      time.Duration

	now func() time.Time
}

func NewJWTManager(secret string, registrationTTL, sessionTTL time.Duration) *JWTManager {
	return &JWTManager{
		Secret:          []byte(secret),
		RegistrationTTL: registrationTTL,
		SessionTTL:      sessionTTL,
		now:             time.Now,
	}
}

// WithClock returns a copy of m that issues and validates tokens against now.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	cp := *m
	cp.now = now
	return &cp
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issue signs a token for userID that expires after ttl.
func (m *JWTManager) Issue(userID string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func (m *JWTManager) IssueSession(userID string) (string, time.Time, error) {
	return m.Issue(userID, m.SessionTTL)
}

func (m *JWTManager) IssueRegistration(userID string) (string, time.Time, error) {
	return m.Issue(userID, m.RegistrationTTL)
}

// Verify checks signature and expiry.
func (m *JWTManager) Verify(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// ParseIgnoringExpiry checks the signature but accepts tokens past their exp claim.
func (m *JWTManager) ParseIgnoringExpiry(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// DecodeUnverified reads the claims without checking anything. Never use the result for
// authorization.
func (m *JWTManager) DecodeUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("missing uid claim")
	}
	return claims, nil
}
