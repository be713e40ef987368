package photostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/vbonduro/homeinspect/internal/domain"
)

// ErrNotFound is returned when no object exists under the key.
var ErrNotFound = errors.New("photo not found")

// PhotoStore is the object storage bucket behind inspection images. Keys are
// slash separated paths such as inspections/<id>/<name>.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (domain.Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]domain.Object, error)
	// URL returns a URL from which the object can be fetched without
	// further credentials.
	URL(ctx context.Context, key string) (string, error)
}

// ValidateKey rejects empty, absolute and non-canonical keys.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("invalid storage key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("invalid storage key %q", key)
		}
	}
	return nil
}

// DeletePrefix removes every object under prefix and returns how many were
// removed. It stops at the first failure.
func DeletePrefix(ctx context.Context, s PhotoStore, prefix string) (int, error) {
	objs, err := s.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	for i, obj := range objs {
		if err := s.Delete(ctx, obj.Key); err != nil && !errors.Is(err, ErrNotFound) {
			return i, fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}
	return len(objs), nil
}

// ContentTypeForKey guesses the image MIME type from the key's extension.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
