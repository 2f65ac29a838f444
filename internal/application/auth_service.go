package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	repo "github.com/oksasatya/shopdesk-api/internal/domain/repository"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
	"github.com/oksasatya/shopdesk-api/pkg/validation"
)

// AuthService implements the password based flows: registration, login, logout,
// password reset, token refresh and password change.
type AuthService struct {
	Repo     repo.UserRepository
	Roles    *RoleService
	JWT      *helpers.JWTManager
	Mailer   Mailer
	Indexer  UserIndexer
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	ResetTTL time.Duration
	Now      func() time.Time

	audit auditor
}

func NewAuthService(users repo.UserRepository, roles *RoleService, jwt *helpers.JWTManager, mailer Mailer, indexer UserIndexer, audit repo.AuditRepository, logger *logrus.Logger, m *metrics.Metrics, resetTTL time.Duration) *AuthService {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	return &AuthService{
		Repo:     users,
		Roles:    roles,
		JWT:      jwt,
		Mailer:   mailer,
		Indexer:  indexer,
		Logger:   logger,
		Metrics:  m,
		ResetTTL: resetTTL,
		Now:      time.Now,
		audit:    auditor{repo: audit, logger: logger},
	}
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// AuthResult is a user together with a freshly issued bearer token.
type AuthResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	IsBusiness bool
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// compareDummy burns a bcrypt comparison so unknown emails take as long as wrong passwords.
func compareDummy(plain string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = helpers.HashPassword("shopdesk-timing-equalizer!")
	})
	_ = helpers.CompareHashAndPassword(dummyHash, plain)
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := entity.NormalizeEmail(in.Email)
	if !validation.ValidPassword(in.Password) {
		return nil, ValidationError("password must be at least 8 characters and contain a symbol")
	}
	if in.Phone != "" && !validation.ValidMobile(in.Phone) {
		return nil, ValidationError("invalid mobile number")
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		s.Metrics.AuthEvent("register", "conflict")
		return nil, ConflictError(MsgEmailTaken)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.dependency("lookup user failed", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, s.dependency("hash password failed", err)
	}
	u := &entity.User{
		Name:         in.Name,
		Email:        email,
		Phone:        in.Phone,
		PasswordHash: &hash,
		Roles:        entity.RoleFlags{IsUser: true, IsBusiness: in.IsBusiness},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			s.Metrics.AuthEvent("register", "conflict")
			return nil, ConflictError(MsgEmailTaken)
		}
		return nil, s.dependency("create user failed", err)
	}

	token, exp, err := s.JWT.IssueRegistration(u.ID)
	if err != nil {
		return nil, s.dependency("issue token failed", err)
	}
	s.index(ctx, u)
	s.audit.record(ctx, u.ID, u.Email, entity.AuditRegister, map[string]any{"business": in.IsBusiness})
	s.Metrics.AuthEvent("register", "success")
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

// Login verifies credentials. Unknown email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = entity.NormalizeEmail(email)
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			compareDummy(password)
			s.loginFailed(ctx, "", email, "unknown_email")
			return nil, ErrInvalidCredentials
		}
		return nil, s.dependency("lookup user failed", err)
	}
	if !u.HasPassword() {
		compareDummy(password)
		s.loginFailed(ctx, u.ID, email, "oauth_only")
		return nil, AuthenticationError(MsgPasswordLoginBlocked)
	}
	if !helpers.CompareHashAndPassword(*u.PasswordHash, password) {
		s.loginFailed(ctx, u.ID, email, "bad_password")
		return nil, ErrInvalidCredentials
	}

	s.markPresence(ctx, u, true)
	s.Roles.Resolve(ctx, u)

	token, exp, err := s.JWT.IssueSession(u.ID)
	if err != nil {
		return nil, s.dependency("issue token failed", err)
	}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditLogin, nil)
	s.Metrics.AuthEvent("login", "success")
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email, reason string) {
	s.Metrics.AuthEvent("login", "failure")
	s.audit.record(ctx, userID, email, entity.AuditLoginFailed, map[string]any{"reason": reason})
}

// Logout clears the presence flag when the caller is known. It never fails.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	u := &entity.User{ID: userID}
	s.markPresence(ctx, u, false)
	s.audit.record(ctx, userID, "", entity.AuditLogout, nil)
}

func (s *AuthService) markPresence(ctx context.Context, u *entity.User, online bool) {
	patch := entity.UserPatch{IsOnline: entity.Ptr(online)}
	if online {
		now := s.now().UTC()
		patch.LastLogin = &now
	}
	updated, err := s.Repo.Update(ctx, u.ID, patch)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("presence update failed")
		}
		return
	}
	u.IsOnline = updated.IsOnline
	u.LastLogin = updated.LastLogin
}

// ForgotPassword issues a reset token and mails it. The returned message never reveals
// whether the email is registered; only a mail delivery failure is reported.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = entity.NormalizeEmail(email)
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Metrics.AuthEvent("forgot_password", "unknown")
			return MsgResetSent, nil
		}
		return "", s.dependency("lookup user failed", err)
	}

	token, err := helpers.GenResetToken()
	if err != nil {
		return "", s.dependency("generate reset token failed", err)
	}
	expires := s.now().UTC().Add(s.ResetTTL).Truncate(time.Millisecond)
	if _, err := s.Repo.Update(ctx, u.ID, entity.UserPatch{
		ResetPasswordToken:   &token,
		ResetPasswordExpires: &expires,
	}); err != nil {
		return "", s.dependency("store reset token failed", err)
	}

	if err := s.Mailer.SendPasswordResetEmail(ctx, u.Email, token, u.Name); err != nil {
		s.Metrics.DependencyError("mail")
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("send reset email failed")
		}
		if _, rbErr := s.Repo.Update(ctx, u.ID, entity.UserPatch{ClearResetToken: true}); rbErr != nil && s.Logger != nil {
			s.Logger.WithError(rbErr).WithField("user_id", u.ID).Error("rollback reset token failed")
		}
		s.audit.record(ctx, u.ID, u.Email, entity.AuditResetInitFailed, nil)
		return "", DependencyError(MsgResetMailFailed, err)
	}

	s.audit.record(ctx, u.ID, u.Email, entity.AuditResetInit, map[string]any{"expires_at": expires})
	s.Metrics.AuthEvent("forgot_password", "sent")
	return MsgResetSent, nil
}

// ResetPassword consumes a live reset token. Unknown, used and expired tokens fail alike.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !validation.ValidPassword(newPassword) {
		return ValidationError("password must be at least 8 characters and contain a symbol")
	}
	if token == "" {
		return ErrInvalidResetToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return s.dependency("hash password failed", err)
	}
	u, err := s.Repo.ConsumeResetToken(ctx, token, s.now().UTC(), hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Metrics.AuthEvent("reset_password", "invalid_token")
			return ErrInvalidResetToken
		}
		return s.dependency("consume reset token failed", err)
	}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditResetConfirm, nil)
	s.Metrics.AuthEvent("reset_password", "success")
	return nil
}

// Refresh trades a token whose signature is valid for a new session token, even when the
// old token has expired, as long as the user still exists. Roles do not gate the refresh;
// the returned user has lazy expiry applied like any other read.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*AuthResult, error) {
	claims, err := s.JWT.ParseIgnoringExpiry(oldToken)
	if err != nil {
		s.Metrics.AuthEvent("refresh", "invalid")
		return nil, ErrUnauthorized
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Metrics.AuthEvent("refresh", "unknown_user")
			return nil, ErrUnauthorized
		}
		return nil, s.dependency("lookup user failed", err)
	}
	s.Roles.Resolve(ctx, u)
	token, exp, err := s.JWT.IssueSession(u.ID)
	if err != nil {
		return nil, s.dependency("issue token failed", err)
	}
	s.Metrics.AuthEvent("refresh", "success")
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

// ChangePassword requires the current password when one exists. OAuth-only accounts may
// set their first local password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return s.dependency("lookup user failed", err)
	}
	if u.HasPassword() && !helpers.CompareHashAndPassword(*u.PasswordHash, current) {
		return ValidationError("current password is incorrect")
	}
	if !validation.ValidPassword(next) {
		return ValidationError("password must be at least 8 characters and contain a symbol")
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return s.dependency("hash password failed", err)
	}
	if _, err := s.Repo.Update(ctx, u.ID, entity.UserPatch{PasswordHash: &hash, ClearResetToken: true}); err != nil {
		return s.dependency("update password failed", err)
	}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditPasswordChange, map[string]any{"first_password": !u.HasPassword()})
	return nil
}

func (s *AuthService) index(ctx context.Context, u *entity.User) {
	if err := s.Indexer.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}

func (s *AuthService) dependency(msg string, err error) error {
	s.Metrics.DependencyError("store")
	if s.Logger != nil {
		s.Logger.WithError(err).Error(msg)
	}
	return DependencyError(MsgInternal, err)
}
