package application

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	repo "github.com/oksasatya/shopdesk-api/internal/domain/repository"
)

// UserService serves the caller's own profile.
type UserService struct {
	Repo    repo.UserRepository
	Roles   *RoleService
	Avatars AvatarStore
	Indexer UserIndexer
	Logger  *logrus.Logger
}

func NewUserService(users repo.UserRepository, roles *RoleService, avatars AvatarStore, indexer UserIndexer, logger *logrus.Logger) *UserService {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	return &UserService{Repo: users, Roles: roles, Avatars: avatars, Indexer: indexer, Logger: logger}
}

// Profile loads the full user record with lazy role expiry applied.
func (s *UserService) Profile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.Roles.Resolve(ctx, u)
	return u, nil
}

type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	patch := entity.UserPatch{Phone: in.Phone}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		patch.Name = &n
	}
	u, err := s.Repo.Update(ctx, userID, patch)
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.Roles.Resolve(ctx, u)
	s.index(ctx, u)
	return u, nil
}

// UploadAvatar stores the image and records its URL on the profile.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Avatars == nil {
		return "", DependencyError("avatar storage is not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ValidationError("avatar must be an image")
	}
	if _, err := s.Repo.GetIdentityByID(ctx, userID); err != nil {
		return "", mapRepoError(err)
	}
	url, err := s.Avatars.Upload(ctx, userID, r, filename, contentType)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("avatar upload failed")
		}
		return "", DependencyError("avatar upload failed", err)
	}
	u, err := s.Repo.Update(ctx, userID, entity.UserPatch{AvatarURL: &url})
	if err != nil {
		return "", mapRepoError(err)
	}
	s.index(ctx, u)
	return url, nil
}

func (s *UserService) index(ctx context.Context, u *entity.User) {
	if err := s.Indexer.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}
