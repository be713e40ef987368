package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/photostore"
)

// DefaultMaxImageBytes is the per-file upload limit.
const DefaultMaxImageBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// objectRecorder receives one call per storage write or delete.
type objectRecorder interface {
	ObjectOp(op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObjectOp(string, error) {}

// ImageService guards the object store: every key must sit under an
// inspection the caller owns.
type ImageService struct {
	inspections inspectionRepository
	photoStg    photostore.PhotoStore
	maxBytes    int64
	recorder    objectRecorder
	logger      *slog.Logger
}

func NewImageService(inspections inspectionRepository, photoStg photostore.PhotoStore, maxBytes int64, recorder objectRecorder, logger *slog.Logger) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &ImageService{inspections: inspections, photoStg: photoStg, maxBytes: maxBytes, recorder: recorder, logger: logger}
}

func (s *ImageService) MaxBytes() int64 { return s.maxBytes }

// Authorize checks that key names an image of one of userID's inspections
// and returns the inspection id.
func (s *ImageService) Authorize(ctx context.Context, userID, key string) (string, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return "", ErrForbiddenPath
	}
	inspectionID, _, err := domain.ParseImagePath(key)
	if err != nil {
		return "", ErrForbiddenPath
	}
	if err := s.requireInspection(ctx, userID, inspectionID); err != nil {
		return "", err
	}
	return inspectionID, nil
}

func (s *ImageService) requireInspection(ctx context.Context, userID, inspectionID string) error {
	in, err := s.inspections.GetByID(ctx, userID, inspectionID)
	if err != nil {
		return err
	}
	if in == nil {
		return ErrNotFound
	}
	return nil
}

// Put stores data under key. contentType is the sniffed type of data.
func (s *ImageService) Put(ctx context.Context, userID, key, contentType string, data []byte) (domain.Image, error) {
	inspectionID, err := s.Authorize(ctx, userID, key)
	if err != nil {
		return domain.Image{}, err
	}
	if int64(len(data)) > s.maxBytes {
		return domain.Image{}, ErrTooLarge
	}
	if !allowedImageTypes[contentType] {
		return domain.Image{}, ErrUnsupportedType
	}

	obj, err := s.photoStg.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	s.recorder.ObjectOp("put", err)
	if err != nil {
		return domain.Image{}, err
	}
	s.logger.Info("image stored", "inspection_id", inspectionID, "key", key, "bytes", len(data))
	return s.toImage(ctx, obj)
}

// List returns the images of an inspection ordered by key, which for
// generated names is upload order.
func (s *ImageService) List(ctx context.Context, userID, inspectionID string) ([]domain.Image, error) {
	if err := s.requireInspection(ctx, userID, inspectionID); err != nil {
		return nil, err
	}
	objs, err := s.photoStg.List(ctx, domain.ImagePrefix(inspectionID))
	if err != nil {
		return nil, err
	}
	images := make([]domain.Image, 0, len(objs))
	for _, obj := range objs {
		img, err := s.toImage(ctx, obj)
		if err != nil {
			s.logger.Warn("skipping unexpected object", "key", obj.Key, "error", err)
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *ImageService) URL(ctx context.Context, userID, key string) (string, error) {
	if _, err := s.Authorize(ctx, userID, key); err != nil {
		return "", err
	}
	return s.photoStg.URL(ctx, key)
}

func (s *ImageService) Delete(ctx context.Context, userID, key string) error {
	if _, err := s.Authorize(ctx, userID, key); err != nil {
		return err
	}
	err := s.photoStg.Delete(ctx, key)
	s.recorder.ObjectOp("delete", err)
	if errors.Is(err, photostore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Open reads a stored image without an ownership check. Image paths are
// public once known, like a public bucket.
func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return nil, "", ErrForbiddenPath
	}
	if _, _, err := domain.ParseImagePath(key); err != nil {
		return nil, "", ErrForbiddenPath
	}
	rc, ct, err := s.photoStg.Get(ctx, key)
	if errors.Is(err, photostore.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	return rc, ct, err
}

func (s *ImageService) toImage(ctx context.Context, obj domain.Object) (domain.Image, error) {
	url, err := s.photoStg.URL(ctx, obj.Key)
	if err != nil {
		return domain.Image{}, err
	}
	return domain.ImageFromObject(obj, url)
}
