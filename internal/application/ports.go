package application

import (
	"context"
	"io"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, email, token, displayName string) error
}

// OAuthProvider runs the authorization-code exchange with an external identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (entity.OAuthProfile, error)
}

// UserIndexer keeps the admin search index in sync. Failures are best effort.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// AvatarStore uploads avatar images and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

type noopIndexer struct{}

func (noopIndexer) Index(context.Context, *entity.User) error { return nil }
func (noopIndexer) Remove(context.Context, string) error      { return nil }
func (noopIndexer) Search(context.Context, string, int) ([]map[string]any, error) {
	return []map[string]any{}, nil
}
