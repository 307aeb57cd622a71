package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

// cloudinaryStore keeps objects as Cloudinary assets whose public id is the
// object path without its extension. URIs are delivery URLs, so it only fits
// video providers that hand back inline bytes.
type cloudinaryStore struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	http      *http.Client
	log       logger.Logger
}

func NewCloudinaryStore(cfg config.Config, log logger.Logger) (service.ObjectStore, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("connect Cloudinary successfully.")
	return &cloudinaryStore{cld: cld, cloudName: cfg.Cloudinary.CloudName, http: http.DefaultClient, log: log}, nil
}

func resourceTypeFor(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return "image"
	case ".mp4", ".mov", ".webm":
		return "video"
	}
	return "raw"
}

func publicIDFor(p string) string {
	p = strings.TrimPrefix(p, "/")
	if resourceTypeFor(p) == "raw" {
		return p
	}
	return strings.TrimSuffix(p, path.Ext(p))
}

func (s *cloudinaryStore) URI(p string) string {
	p = strings.TrimPrefix(p, "/")
	return fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/%s", s.cloudName, resourceTypeFor(p), p)
}

func (s *cloudinaryStore) Put(ctx context.Context, p string, data []byte, contentType string) (string, error) {
	overwrite := true
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicIDFor(p),
		ResourceType: resourceTypeFor(p),
		Overwrite:    &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload cloudinary: %s", result.Error.Message)
	}
	return s.URI(p), nil
}

func (s *cloudinaryStore) Get(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", uri, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *cloudinaryStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete with an empty prefix")
	}

	deleted := 0
	for _, assetType := range []api.AssetType{api.Video, api.Image, api.File} {
		result, err := s.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
			AssetType: assetType,
			Prefix:    api.CldAPIArray{prefix},
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete cloudinary prefix %s: %w", prefix, err)
		}
		if result.Error.Message != "" {
			return deleted, fmt.Errorf("failed to delete cloudinary prefix %s: %s", prefix, result.Error.Message)
		}
		for _, status := range result.Deleted {
			if status == "deleted" {
				deleted++
			}
		}
	}
	s.log.Debug("Cloudinary prefix deleted", zap.String("prefix", prefix), zap.Int("deleted", deleted))
	return deleted, nil
}
