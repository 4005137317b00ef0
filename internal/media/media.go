// Package media stores images attached to events, menu items and courses.
// Documents reference an image by its object key (the ImageKey field).
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gazra/gazra/backend/go-services/pkg/metrics"
)

// MaxImageSize bounds a single upload.
const MaxImageSize = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrBadKey          = errors.New("invalid media key")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectStore is the blob backend. *MinIOStore implements it.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

type Service struct {
	store  ObjectStore
	expiry time.Duration
}

func NewService(store ObjectStore, expiry time.Duration) *Service {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Service{store: store, expiry: expiry}
}

// Upload stores an image under "<folder>/<uuid><ext>" and returns the key.
func (s *Service) Upload(ctx context.Context, folder string, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))]
	if !ok {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if size <= 0 || size > MaxImageSize {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		return "", ErrTooLarge
	}
	folder = cleanFolder(folder)
	key := folder + "/" + uuid.NewString() + ext
	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		metrics.MediaUploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	metrics.MediaUploads.WithLabelValues("ok").Inc()
	return key, nil
}

// URL returns a short-lived download URL for key.
func (s *Service) URL(ctx context.Context, key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return s.store.PresignedURL(ctx, key, s.expiry)
}

func (s *Service) Remove(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	return s.store.Remove(ctx, key)
}

// CleanKey normalizes a key taken from a URL path and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrBadKey
	}
	if c := path.Clean(key); c != key {
		return "", ErrBadKey
	}
	return key, nil
}

func cleanFolder(folder string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" || folder == "." {
		return "uploads"
	}
	return folder
}
