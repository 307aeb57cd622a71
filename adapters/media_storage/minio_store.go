package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Scheme is the URI scheme handed to other services, e.g. gs for the GCS interop endpoint.
	Scheme string
}

// MinioStore speaks the S3 API, which covers MinIO locally and GCS through its interop endpoint.
type MinioStore struct {
	client *miniogo.Client
	bucket string
	scheme string
	log    logger.Logger
}

var _ service.ObjectStore = (*MinioStore)(nil)

func NewMinioStore(cfg MinioConfig, log logger.Logger) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is not configured")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "s3"
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, scheme: scheme, log: log}, nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.log.Info("Created storage bucket", zap.String("bucket", s.bucket))
	}
	return nil
}

func (s *MinioStore) URI(path string) string {
	return fmt.Sprintf("%s://%s/%s", s.scheme, s.bucket, strings.TrimPrefix(path, "/"))
}

func (s *MinioStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key := strings.TrimPrefix(path, "/")
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URI(key), nil
}

func (s *MinioStore) Get(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", uri, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return data, nil
}

func (s *MinioStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete with an empty prefix")
	}

	listed := 0
	objects := make(chan miniogo.ObjectInfo)
	var listErr error
	go func() {
		defer close(objects)
		for obj := range s.client.ListObjects(ctx, s.bucket, miniogo.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			listed++
			objects <- obj
		}
	}()

	failed := 0
	var firstErr error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, miniogo.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	if listErr != nil {
		return listed - failed, fmt.Errorf("list %s: %w", prefix, listErr)
	}
	return listed - failed, firstErr
}

// ParseObjectURI splits scheme://bucket/key.
func ParseObjectURI(uri string) (bucket, key string, err error) {
	_, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return "", "", fmt.Errorf("object uri %q has no scheme", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("object uri %q must be scheme://bucket/key", uri)
	}
	return bucket, key, nil
}
