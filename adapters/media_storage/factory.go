package media_storage

import (
	"context"
	"fmt"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
)

// NewObjectStore picks the backend named by storage.provider.
func NewObjectStore(ctx context.Context, cfg config.Config, log logger.Logger) (service.ObjectStore, error) {
	switch cfg.Storage.Provider {
	case "minio", "s3", "gcs", "":
		store, err := NewMinioStore(MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Scheme:    cfg.Storage.Scheme,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "cloudinary":
		return NewCloudinaryStore(cfg, log)
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
}
