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
	"github.com/oksasatya/shopdesk-api/pkg/validation"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AdminService backs the admin user management endpoints.
type AdminService struct {
	Repo    repo.UserRepository
	Roles   *RoleService
	Indexer UserIndexer
	Logger  *logrus.Logger

	audit auditor
}

func NewAdminService(users repo.UserRepository, roles *RoleService, indexer UserIndexer, audit repo.AuditRepository, logger *logrus.Logger) *AdminService {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	return &AdminService{
		Repo:    users,
		Roles:   roles,
		Indexer: indexer,
		Logger:  logger,
		audit:   auditor{repo: audit, logger: logger},
	}
}

// Page describes one slice of a listing.
type Page struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// List returns users ordered by creation time with their roles resolved.
func (s *AdminService) List(ctx context.Context, page, limit int) ([]*entity.User, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return nil, Page{}, DependencyError(MsgInternal, err)
	}
	users, err := s.Repo.List(ctx, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, Page{}, DependencyError(MsgInternal, err)
	}
	for _, u := range users {
		s.Roles.Resolve(ctx, u)
	}
	return users, Page{Page: page, Limit: limit, Total: total}, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.Roles.Resolve(ctx, u)
	return u, nil
}

type AdminCreateInput struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	IsAdmin    bool
	IsBusiness bool
	IsUser     bool
}

// Create adds a user with any role combination.
func (s *AdminService) Create(ctx context.Context, in AdminCreateInput) (*entity.User, error) {
	if !validation.ValidPassword(in.Password) {
		return nil, ValidationError("password must be at least 8 characters and contain a symbol")
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, DependencyError(MsgInternal, err)
	}
	u := &entity.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        entity.NormalizeEmail(in.Email),
		Phone:        in.Phone,
		PasswordHash: &hash,
		Roles:        entity.RoleFlags{IsAdmin: in.IsAdmin, IsBusiness: in.IsBusiness, IsUser: in.IsUser},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, mapRepoError(err)
	}
	s.index(ctx, u)
	s.audit.record(ctx, u.ID, u.Email, entity.AuditRoleChange, map[string]any{"created": true, "roles": u.Roles})
	return u, nil
}

type AdminUpdateInput struct {
	Name       *string
	Email      *string
	Phone      *string
	IsAdmin    *bool
	IsBusiness *bool
	IsUser     *bool
}

// Update applies a partial change. An explicit isAdmin value makes the admin state
// permanent, dropping any temporary grant expiry.
func (s *AdminService) Update(ctx context.Context, id string, in AdminUpdateInput) (*entity.User, error) {
	patch := entity.UserPatch{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		IsAdmin:    in.IsAdmin,
		IsBusiness: in.IsBusiness,
		IsUser:     in.IsUser,
	}
	u, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if in.IsAdmin != nil || in.IsBusiness != nil || in.IsUser != nil {
		s.audit.record(ctx, u.ID, u.Email, entity.AuditRoleChange, map[string]any{"roles": u.Roles})
	}
	s.index(ctx, u)
	return u, nil
}

// Delete removes a user. Callers cannot delete themselves.
func (s *AdminService) Delete(ctx context.Context, callerID, id string) error {
	if callerID == id {
		return ValidationError("you cannot delete your own account")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	if err := s.Indexer.Remove(ctx, id); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("remove user from index failed")
	}
	s.audit.record(ctx, id, "", entity.AuditUserDelete, map[string]any{"by": callerID})
	return nil
}

// PromoteToBusiness sets isBusiness without touching other roles.
func (s *AdminService) PromoteToBusiness(ctx context.Context, id string) (*entity.User, error) {
	return s.Update(ctx, id, AdminUpdateInput{IsBusiness: entity.Ptr(true)})
}

// GrantTemporaryAdmin delegates to the role service.
func (s *AdminService) GrantTemporaryAdmin(ctx context.Context, id, duration string) (time.Time, *entity.User, error) {
	exp, u, err := s.Roles.AssignTemporaryAdmin(ctx, id, duration)
	if err != nil {
		return time.Time{}, nil, err
	}
	s.index(ctx, u)
	return exp, u, nil
}

// Search queries the user index by name or email.
func (s *AdminService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ValidationError("query must not be empty")
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	hits, err := s.Indexer.Search(ctx, q, size)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Error("user search failed")
		}
		return nil, DependencyError(MsgInternal, err)
	}
	return hits, nil
}

// EnsureAdmin creates a permanent admin with the given credentials, or upgrades the existing
// account with that email to a permanent admin and resets its password. It reports whether
// a new account was created.
func (s *AdminService) EnsureAdmin(ctx context.Context, name, email, password string) (*entity.User, bool, error) {
	u, err := s.Create(ctx, AdminCreateInput{Name: name, Email: email, Password: password, IsAdmin: true, IsUser: true})
	if err == nil {
		return u, true, nil
	}
	if KindOf(err) != KindConflict {
		return nil, false, err
	}
	existing, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, false, mapRepoError(err)
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, false, DependencyError(MsgInternal, err)
	}
	u, err = s.Repo.Update(ctx, existing.ID, entity.UserPatch{
		PasswordHash: &hash,
		IsAdmin:      entity.Ptr(true),
		IsUser:       entity.Ptr(true),
	})
	if err != nil {
		return nil, false, mapRepoError(err)
	}
	s.audit.record(ctx, u.ID, u.Email, entity.AuditRoleChange, map[string]any{"seeded": true, "roles": u.Roles})
	s.index(ctx, u)
	return u, false, nil
}

func (s *AdminService) index(ctx context.Context, u *entity.User) {
	if err := s.Indexer.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repo.ErrDuplicateEmail):
		return ConflictError(MsgEmailTaken)
	default:
		return DependencyError(MsgInternal, err)
	}
}
