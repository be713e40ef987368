// Package app assembles the API server from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/homeinspect/internal/auth"
	"github.com/vbonduro/homeinspect/internal/config"
	"github.com/vbonduro/homeinspect/internal/metrics"
	"github.com/vbonduro/homeinspect/internal/photostore"
	"github.com/vbonduro/homeinspect/internal/photostore/local"
	"github.com/vbonduro/homeinspect/internal/photostore/memory"
	"github.com/vbonduro/homeinspect/internal/photostore/minio"
	"github.com/vbonduro/homeinspect/internal/photostore/s3"
	"github.com/vbonduro/homeinspect/internal/service"
	"github.com/vbonduro/homeinspect/internal/store"
	"github.com/vbonduro/homeinspect/internal/web"
)

type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
	SecureCookies  bool
}

// NewServer wires stores, services and the HTTP API over an open database.
func NewServer(database *sql.DB, photos photostore.PhotoStore, opts Options, logger *slog.Logger) (*web.Server, error) {
	tokens, err := auth.NewTokenIssuer(opts.JWTSecret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	userStore := store.NewUserStore(database)
	sessionStore := store.NewSessionStore(database)
	houseStore := store.NewHouseStore(database)
	inspectionStore := store.NewInspectionStore(database)
	m := metrics.New()

	return web.NewServer(web.Services{
		Auth:        auth.NewAuthenticator(userStore, sessionStore, tokens, logger),
		Houses:      service.NewHouseService(houseStore, inspectionStore, photos, logger),
		Inspections: service.NewInspectionService(houseStore, inspectionStore, photos, logger),
		Images:      service.NewImageService(inspectionStore, photos, opts.MaxUploadBytes, m, logger),
		Metrics:     m,
	}, opts.SecureCookies, logger), nil
}

// OptionsFromConfig derives server options from the backend configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SecureCookies:  strings.HasPrefix(cfg.PublicBaseURL, "https://"),
	}
}

// OpenPhotoStore returns the storage backend named by PHOTO_BACKEND.
func OpenPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case "local", "":
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		return local.NewLocalPhotoStore(cfg.PhotoPath, cfg.PublicBaseURL)
	case "memory":
		logger.Warn("using in-memory photo store; images are lost on restart")
		return memory.New(cfg.PublicBaseURL), nil
	case "minio":
		logger.Info("using MinIO photo store", "endpoint", cfg.MinIOEndpoint, "bucket", cfg.MinIOBucket)
		return minio.New(ctx, minio.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	case "s3":
		logger.Info("using S3 photo store", "bucket", cfg.S3Bucket, "region", cfg.S3Region)
		return s3.New(ctx, s3.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown photo backend %q", cfg.PhotoBackend)
	}
}
