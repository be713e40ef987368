package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/photostore"
)

// LocalPhotoStore keeps objects as files below basePath. Keys map directly
// onto relative file paths. Objects are served by the API under /files/.
type LocalPhotoStore struct {
	basePath string
	baseURL  string
}

func NewLocalPhotoStore(basePath, publicBaseURL string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &LocalPhotoStore{basePath: basePath, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (s *LocalPhotoStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (domain.Object, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return domain.Object{}, err
	}
	filePath, err := s.safeJoin(key)
	if err != nil {
		return domain.Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return domain.Object{}, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return domain.Object{}, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return domain.Object{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return domain.Object{}, fmt.Errorf("failed to close file: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return domain.Object{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if contentType == "" {
		contentType = photostore.ContentTypeForKey(key)
	}
	return domain.Object{Key: key, Size: n, ContentType: contentType, LastModified: info.ModTime().UTC()}, nil
}

func (s *LocalPhotoStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", photostore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, photostore.ContentTypeForKey(key), nil
}

func (s *LocalPhotoStore) Delete(ctx context.Context, key string) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return photostore.ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	// Drop the inspection directory once its last image is gone.
	dir := filepath.Dir(filePath)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if absBase, err := filepath.Abs(s.basePath); err == nil && dir != absBase {
			_ = os.Remove(dir)
		}
	}
	return nil
}

// List returns the objects whose keys start with prefix, sorted by key.
func (s *LocalPhotoStore) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}

	var objs []domain.Object
	err = filepath.WalkDir(absBase, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(absBase, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objs = append(objs, domain.Object{
			Key:          key,
			Size:         info.Size(),
			ContentType:  photostore.ContentTypeForKey(key),
			LastModified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (s *LocalPhotoStore) URL(ctx context.Context, key string) (string, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return "", err
	}
	return s.baseURL + "/files/" + key, nil
}

// safeJoin resolves storageKey relative to basePath and rejects directory traversal.
func (s *LocalPhotoStore) safeJoin(storageKey string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(storageKey)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
