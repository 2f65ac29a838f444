package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/shopdesk-api/pkg/helpers"
)

// AvatarStore writes avatar images to a GCS bucket under avatars/<userID>/.
type AvatarStore struct {
	Client *storage.Client
	Bucket string
}

func NewAvatarStore(client *storage.Client, bucket string) *AvatarStore {
	return &AvatarStore{Client: client, Bucket: bucket}
}

func (s *AvatarStore) Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Client == nil || s.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	return helpers.UploadImageToGCS(ctx, s.Client, s.Bucket, AvatarObjectPath(userID, filename), contentType, r)
}

// AvatarObjectPath returns a unique object key that keeps the upload's extension.
func AvatarObjectPath(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("avatars", userID, uuid.NewString()+ext)
}
