// Package s3 stores photos in an S3-compatible bucket through the AWS SDK.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/photostore"
)

const defaultURLExpiry = time.Hour

type Store struct {
	client    *s3.Client
	bucket    string
	presign   *s3.PresignClient
	urlExpiry time.Duration
}

type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; set for MinIO or other S3-compatible services
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	PathStyle       bool
	URLExpiry       time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newWithClient(client, cfg.Bucket, cfg.URLExpiry), nil
}

func newWithClient(client *s3.Client, bucket string, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return &Store{client: client, bucket: bucket, presign: s3.NewPresignClient(client), urlExpiry: expiry}
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (domain.Object, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return domain.Object{}, err
	}
	body, ok := r.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return domain.Object{}, fmt.Errorf("failed to read upload: %w", err)
		}
		body = bytes.NewReader(b)
		size = int64(len(b))
	}
	if contentType == "" {
		contentType = photostore.ContentTypeForKey(key)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: body, ContentType: &contentType}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return domain.Object{}, fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return domain.Object{Key: key, Size: size, ContentType: contentType, LastModified: time.Now().UTC()}, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, "", photostore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get object %s: %w", key, err)
	}
	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = photostore.ContentTypeForKey(key)
	}
	return out.Body, ct, nil
}

// Delete checks existence first because S3 deletes are silent for
// missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isNotFound(err) {
			return photostore.ErrNotFound
		}
		return fmt.Errorf("failed to head object %s: %w", key, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	var objs []domain.Object
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			objs = append(objs, domain.Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				ContentType:  photostore.ContentTypeForKey(key),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

// URL returns a presigned GET URL valid for the configured expiry.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return "", err
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key},
		func(po *s3.PresignOptions) { po.Expires = s.urlExpiry })
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return out.URL, nil
}

func isNotFound(err error) bool {
	var re interface{ HTTPStatusCode() int }
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
