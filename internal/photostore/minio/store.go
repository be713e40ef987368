// Package minio stores photos in a MinIO bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/photostore"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region    string
	URLExpiry time.Duration
}

type Store struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// New connects to MinIO and creates the bucket if it doesn't exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Store{client: client, bucket: cfg.Bucket, urlExpiry: expiry}, nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (domain.Object, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return domain.Object{}, err
	}
	if contentType == "" {
		contentType = photostore.ContentTypeForKey(key)
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.Object{}, fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	lm := info.LastModified
	if lm.IsZero() {
		lm = time.Now()
	}
	return domain.Object{Key: key, Size: info.Size, ContentType: contentType, LastModified: lm.UTC()}, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, "", photostore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to stat object: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}
	ct := stat.ContentType
	if ct == "" {
		ct = photostore.ContentTypeForKey(key)
	}
	return obj, ct, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return photostore.ErrNotFound
		}
		return fmt.Errorf("failed to stat object: %w", err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	var objs []domain.Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		objs = append(objs, domain.Object{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  photostore.ContentTypeForKey(info.Key),
			LastModified: info.LastModified.UTC(),
		})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
