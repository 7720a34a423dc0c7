package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"social-chat-service/internal/logger"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

const signedURLTTL = time.Hour

// AvatarStore uploads avatar images and hands out time-limited signed URLs.
type AvatarStore interface {
	Upload(ctx context.Context, userID int, ext string, r io.Reader) (string, error)
}

// NewAvatarStore builds a Firebase-backed store, or a disabled store when no
// bucket is configured.
func NewAvatarStore(ctx context.Context, bucket, credentialsPath string) AvatarStore {
	if bucket == "" {
		logger.Log.Info("avatar storage disabled: empty bucket")
		return disabledStore{}
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, opts...)
	if err != nil {
		logger.Log.Warnf("avatar storage disabled: %v", err)
		return disabledStore{}
	}

	client, err := app.Storage(ctx)
	if err != nil {
		logger.Log.Warnf("avatar storage disabled: %v", err)
		return disabledStore{}
	}

	handle, err := client.DefaultBucket()
	if err != nil {
		logger.Log.Warnf("avatar storage disabled: %v", err)
		return disabledStore{}
	}

	logger.Log.Infof("avatar storage connected bucket=%s", bucket)
	return &firebaseStore{bucket: handle}
}

type firebaseStore struct {
	bucket *gcs.BucketHandle
}

// Upload writes the avatar under a per-user path, overwriting any previous
// object at that path, and returns a signed retrieval URL.
func (s *firebaseStore) Upload(ctx context.Context, userID int, ext string, r io.Reader) (string, error) {
	objectPath := fmt.Sprintf("%d/avatar-%d.%s", userID, time.Now().Unix(), ext)

	w := s.bucket.Object(objectPath).NewWriter(ctx)
	w.CacheControl = "private, max-age=3600"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	url, err := s.bucket.SignedURL(objectPath, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(signedURLTTL),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign avatar url: %w", err)
	}
	return url, nil
}

type disabledStore struct{}

func (disabledStore) Upload(ctx context.Context, userID int, ext string, r io.Reader) (string, error) {
	return "", ErrStorageDisabled
}
