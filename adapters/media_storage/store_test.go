package media_storage

import (
	"context"
	"testing"

	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectURI(t *testing.T) {
	bucket, key, err := ParseObjectURI("gs://reels/content/4/segments/segment_2.mp4")
	require.NoError(t, err)
	assert.Equal(t, "reels", bucket)
	assert.Equal(t, "content/4/segments/segment_2.mp4", key)

	for _, bad := range []string{"content/4/x.mp4", "gs://reels", "gs:///key", "gs://reels/"} {
		_, _, err := ParseObjectURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestMinioStore_URI(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "reels", Scheme: "gs"}, logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "gs://reels/content/1/frames/segment_1.png", s.URI("content/1/frames/segment_1.png"))
	assert.Equal(t, "gs://reels/content/1/", s.URI("/content/1/"))
}

func TestMinioStore_RefusesEmptyPrefix(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "reels"}, logger.NewNop())
	require.NoError(t, err)

	_, err = s.DeleteByPrefix(context.Background(), "/")
	assert.Error(t, err)
}

func TestCloudinaryStore_Addressing(t *testing.T) {
	var cfg config.Config
	cfg.Cloudinary.CloudName = "demo"
	cfg.Cloudinary.ApiKey = "k"
	cfg.Cloudinary.ApiSecret = "s"
	store, err := NewCloudinaryStore(cfg, logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "https://res.cloudinary.com/demo/video/upload/content/1/segments/segment_1.mp4",
		store.URI("content/1/segments/segment_1.mp4"))
	assert.Equal(t, "content/1/frames/segment_1", publicIDFor("content/1/frames/segment_1.png"))
	assert.Equal(t, "image", resourceTypeFor("a/b.png"))
	assert.Equal(t, "raw", resourceTypeFor("content/1/concat_list.txt"))
}

func TestNewObjectStore_UnknownProvider(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Provider = "ftp"
	_, err := NewObjectStore(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, "unknown storage provider")
}
