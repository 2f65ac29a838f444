package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	repo "github.com/oksasatya/shopdesk-api/internal/domain/repository"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

const defaultOAuthName = "Google User"

// OAuthService links external identities to local users and signs them in.
type OAuthService struct {
	Repo     repo.UserRepository
	Provider OAuthProvider
	Roles    *RoleService
	JWT      *helpers.JWTManager
	Indexer  UserIndexer
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time

	audit auditor
}

func NewOAuthService(users repo.UserRepository, provider OAuthProvider, roles *RoleService, jwt *helpers.JWTManager, indexer UserIndexer, audit repo.AuditRepository, logger *logrus.Logger, m *metrics.Metrics) *OAuthService {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	return &OAuthService{
		Repo:     users,
		Provider: provider,
		Roles:    roles,
		JWT:      jwt,
		Indexer:  indexer,
		Logger:   logger,
		Metrics:  m,
		Now:      time.Now,
		audit:    auditor{repo: audit, logger: logger},
	}
}

// AuthCodeURL returns the provider consent URL carrying state.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.Provider.AuthCodeURL(state)
}

// Complete exchanges the authorization code, resolves the local user and issues a session token.
func (s *OAuthService) Complete(ctx context.Context, code string) (*AuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ValidationError("missing authorization code")
	}
	profile, err := s.Provider.Exchange(ctx, code)
	if err != nil {
		s.Metrics.AuthEvent("oauth", "exchange_failed")
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("oauth code exchange failed")
		}
		return nil, AuthenticationError("oauth sign-in failed")
	}
	u, err := s.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if updated, err := s.Repo.Update(ctx, u.ID, entity.UserPatch{LastLogin: &now, IsOnline: entity.Ptr(true)}); err == nil {
		u.LastLogin, u.IsOnline = updated.LastLogin, updated.IsOnline
	} else if s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("presence update failed")
	}
	s.Roles.Resolve(ctx, u)

	token, exp, err := s.JWT.IssueSession(u.ID)
	if err != nil {
		return nil, DependencyError(MsgInternal, err)
	}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditLogin, map[string]any{"provider": "google"})
	s.Metrics.AuthEvent("oauth", "success")
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *OAuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Resolve maps a provider profile to a local user. A verified email matches an existing
// account first, then the provider subject. Existing accounts are linked at most once and
// keep their password and roles. Unknown identities get a new password-less user.
func (s *OAuthService) Resolve(ctx context.Context, p entity.OAuthProfile) (*entity.User, error) {
	email := p.PrimaryEmail()
	if email == "" || p.ProviderID == "" {
		return nil, AuthenticationError("oauth profile has no email")
	}

	u, err := s.lookup(ctx, p, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return s.link(ctx, u, p, email)
	}

	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = defaultOAuthName
	}
	u = &entity.User{
		Name:  name,
		Email: email,
		Roles: entity.RoleFlags{IsUser: true},
		OAuth: &entity.OAuthLink{GoogleID: p.ProviderID, GoogleEmail: email},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if !errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, DependencyError(MsgInternal, err)
		}
		// lost a creation race or the email belongs to an account we may not link to
		existing, lerr := s.lookup(ctx, p, email)
		if lerr != nil {
			return nil, lerr
		}
		if existing == nil {
			return nil, ConflictError(MsgEmailTaken)
		}
		return s.link(ctx, existing, p, email)
	}
	s.index(ctx, u)
	s.audit.record(ctx, u.ID, u.Email, entity.AuditOAuthSignup, map[string]any{"provider": "google"})
	return u, nil
}

// lookup returns nil, nil when no account matches.
func (s *OAuthService) lookup(ctx context.Context, p entity.OAuthProfile, email string) (*entity.User, error) {
	if p.EmailVerified {
		u, err := s.Repo.GetByEmail(ctx, email)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, DependencyError(MsgInternal, err)
		}
	}
	u, err := s.Repo.GetByGoogleID(ctx, p.ProviderID)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return nil, DependencyError(MsgInternal, err)
}

func (s *OAuthService) link(ctx context.Context, u *entity.User, p entity.OAuthProfile, email string) (*entity.User, error) {
	if u.IsGoogleLinked(p.ProviderID) {
		return u, nil
	}
	if u.OAuth != nil && u.OAuth.GoogleID != "" {
		return nil, ConflictError("account is linked to a different Google identity")
	}
	linked, err := s.Repo.LinkGoogle(ctx, u.ID, entity.OAuthLink{GoogleID: p.ProviderID, GoogleEmail: email})
	if err != nil {
		return nil, DependencyError(MsgInternal, err)
	}
	if !linked {
		// someone linked concurrently; accept only the same identity
		fresh, err := s.Repo.GetByID(ctx, u.ID)
		if err != nil {
			return nil, DependencyError(MsgInternal, err)
		}
		if !fresh.IsGoogleLinked(p.ProviderID) {
			return nil, ConflictError("account is linked to a different Google identity")
		}
		return fresh, nil
	}
	u.OAuth = &entity.OAuthLink{GoogleID: p.ProviderID, GoogleEmail: email}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditOAuthLink, map[string]any{"provider": "google"})
	return u, nil
}

func (s *OAuthService) index(ctx context.Context, u *entity.User) {
	if err := s.Indexer.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}
