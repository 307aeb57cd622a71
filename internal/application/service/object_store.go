package service

import "context"

// ObjectStore addresses objects as scheme://bucket/path.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, uri string) ([]byte, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	URI(path string) string
}
