package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	repo "github.com/oksasatya/shopdesk-api/internal/domain/repository"
	"github.com/oksasatya/shopdesk-api/pkg/metrics"
)

// RoleService resolves effective roles and manages temporary admin grants.
type RoleService struct {
	Repo    repo.UserRepository
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time

	audit auditor
}

func NewRoleService(users repo.UserRepository, audit repo.AuditRepository, logger *logrus.Logger, m *metrics.Metrics) *RoleService {
	return &RoleService{
		Repo:    users,
		Logger:  logger,
		Metrics: m,
		Now:     time.Now,
		audit:   auditor{repo: audit, logger: logger},
	}
}

func (s *RoleService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Resolve returns the effective roles of u. A temporary grant whose expiry is not in the
// future is reported as not admin and cleared in the store with a conditional write; u is
// updated in place to match. The store write is best effort: the result stays isAdmin=false
// when it fails.
func (s *RoleService) Resolve(ctx context.Context, u *entity.User) entity.RoleFlags {
	if u == nil {
		return entity.RoleFlags{}
	}
	if u.TempAdminExpiry == nil || u.TempAdminExpiry.After(s.now()) {
		return u.Roles
	}

	expiry := *u.TempAdminExpiry
	u.Roles.IsAdmin = false
	u.TempAdminExpiry = nil

	if err := s.Repo.ExpireTempAdmin(ctx, u.ID, expiry); err != nil {
		s.Metrics.DependencyError("store")
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("expire temp admin failed")
		}
		return u.Roles
	}
	s.Metrics.TempAdminExpired()
	s.audit.record(ctx, u.ID, u.Email, entity.AuditTempAdminExpire, map[string]any{"expired_at": expiry})
	return u.Roles
}

// Identity loads the identity projection for an authenticated request and resolves its
// roles. A vanished user is reported as unauthorized.
func (s *RoleService) Identity(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetIdentityByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		s.Metrics.DependencyError("store")
		return nil, DependencyError(MsgInternal, err)
	}
	s.Resolve(ctx, u)
	return u, nil
}

// AssignTemporaryAdmin grants admin until now+duration and returns the expiry.
func (s *RoleService) AssignTemporaryAdmin(ctx context.Context, userID, duration string) (time.Time, *entity.User, error) {
	d, err := entity.ParseTempAdminDuration(duration)
	if err != nil {
		return time.Time{}, nil, ValidationError("duration must be one of: 1day, 1week, 1month")
	}
	// millisecond precision so the conditional expiry write matches the stored value
	expiry := d.ExpiryFrom(s.now().UTC()).Truncate(time.Millisecond)

	u, err := s.Repo.Update(ctx, userID, entity.UserPatch{
		IsAdmin:         entity.Ptr(true),
		TempAdminExpiry: &expiry,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return time.Time{}, nil, ErrUserNotFound
		}
		return time.Time{}, nil, DependencyError(MsgInternal, err)
	}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditTempAdminGrant, map[string]any{
		"duration":   string(d),
		"expires_at": expiry,
	})
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "expires_at": expiry}).Info("temporary admin granted")
	}
	return expiry, u, nil
}
