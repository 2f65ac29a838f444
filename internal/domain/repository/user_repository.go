package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines the credential store operations. Every mutating method is a
// single atomic document write.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetIdentityByID loads only identity and role fields.
	GetIdentityByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error)
	List(ctx context.Context, offset, limit int64) ([]*entity.User, error)
	Count(ctx context.Context) (int64, error)

	// Update applies the normalized patch and returns the updated document.
	Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error)
	// ExpireTempAdmin clears isAdmin and tempAdminExpiry only while the stored expiry still equals
	// expiry; a second application is a no-op.
	ExpireTempAdmin(ctx context.Context, id string, expiry time.Time) error
	// LinkGoogle stores the OAuth linkage only when the user has no Google id yet.
	// It reports whether a write happened.
	LinkGoogle(ctx context.Context, id string, link entity.OAuthLink) (bool, error)
	// ConsumeResetToken matches token with an expiry after now, sets the new hash and
	// clears both reset fields in the same write.
	ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}
