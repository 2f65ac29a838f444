package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

// GoogleConfig holds the OAuth client settings.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
}

// GoogleProvider runs the authorization-code flow and verifies the returned ID token.
type GoogleProvider struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewGoogleProvider discovers the issuer endpoints. It performs network I/O.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	issuer := cfg.IssuerURL
	if issuer == "" {
		issuer = "https://accounts.google.com"
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return &GoogleProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (entity.OAuthProfile, error) {
	tok, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return entity.OAuthProfile{}, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return entity.OAuthProfile{}, fmt.Errorf("missing id_token in response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return entity.OAuthProfile{}, fmt.Errorf("verify id token: %w", err)
	}
	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return entity.OAuthProfile{}, fmt.Errorf("parse claims: %w", err)
	}
	return claims.profile(idToken.Subject), nil
}

func (c googleClaims) profile(subject string) entity.OAuthProfile {
	p := entity.OAuthProfile{
		ProviderID:    c.Subject,
		EmailVerified: c.EmailVerified,
		DisplayName:   c.Name,
	}
	if p.ProviderID == "" {
		p.ProviderID = subject
	}
	if c.Email != "" {
		p.Emails = []string{c.Email}
	}
	return p
}
