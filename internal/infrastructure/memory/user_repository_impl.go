package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	"github.com/oksasatya/shopdesk-api/internal/domain/repository"
)

// UserRepository is a process-local credential store used for local development
// (STORE_DRIVER=memory) and tests. Records are copied in and out so callers never
// share pointers with the store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User), now: time.Now}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = entity.NormalizeEmail(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
		// mirrors the unique googleId index of the document store
		if u.OAuth != nil && existing.IsGoogleLinked(u.OAuth.GoogleID) {
			return repository.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	now := r.now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.find(ctx, func(u *entity.User) bool { return u.ID == id })
}

func (r *UserRepository) GetIdentityByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entity.User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Roles:           u.Roles,
		TempAdminExpiry: u.TempAdminExpiry,
	}, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	return r.find(ctx, func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	if googleID == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(ctx, func(u *entity.User) bool { return u.IsGoogleLinked(googleID) })
}

func (r *UserRepository) List(ctx context.Context, offset, limit int64) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, clone(u))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if offset >= int64(len(all)) {
		return []*entity.User{}, nil
	}
	end := int64(len(all))
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch = patch.Normalize()
	if patch.Email != nil && *patch.Email != u.Email {
		for _, other := range r.users {
			if other.ID != id && other.Email == *patch.Email {
				return nil, repository.ErrDuplicateEmail
			}
		}
	}
	patch.Apply(u)
	u.UpdatedAt = r.now().UTC()
	return clone(u), nil
}

func (r *UserRepository) ExpireTempAdmin(ctx context.Context, id string, expiry time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.TempAdminExpiry == nil || !u.TempAdminExpiry.Equal(expiry) {
		return nil
	}
	u.Roles.IsAdmin = false
	u.TempAdminExpiry = nil
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) LinkGoogle(ctx context.Context, id string, link entity.OAuthLink) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if u.OAuth != nil && u.OAuth.GoogleID != "" {
		return false, nil
	}
	for otherID, other := range r.users {
		if otherID != id && other.IsGoogleLinked(link.GoogleID) {
			return false, nil
		}
	}
	l := link
	u.OAuth = &l
	u.UpdatedAt = r.now().UTC()
	return true, nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, repository.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ResetPasswordToken == nil || *u.ResetPasswordToken != token {
			continue
		}
		if u.ResetPasswordExpires == nil || !u.ResetPasswordExpires.After(now) {
			return nil, repository.ErrNotFound
		}
		entity.UserPatch{PasswordHash: &passwordHash, ClearResetToken: true}.Apply(u)
		u.UpdatedAt = r.now().UTC()
		return clone(u), nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) find(ctx context.Context, match func(*entity.User) bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func clone(u *entity.User) *entity.User {
	c := *u
	if u.PasswordHash != nil {
		c.PasswordHash = entity.Ptr(*u.PasswordHash)
	}
	if u.TempAdminExpiry != nil {
		c.TempAdminExpiry = entity.Ptr(*u.TempAdminExpiry)
	}
	if u.OAuth != nil {
		c.OAuth = entity.Ptr(*u.OAuth)
	}
	if u.ResetPasswordToken != nil {
		c.ResetPasswordToken = entity.Ptr(*u.ResetPasswordToken)
	}
	if u.ResetPasswordExpires != nil {
		c.ResetPasswordExpires = entity.Ptr(*u.ResetPasswordExpires)
	}
	if u.LastLogin != nil {
		c.LastLogin = entity.Ptr(*u.LastLogin)
	}
	return &c
}

var _ repository.UserRepository = (*UserRepository)(nil)
