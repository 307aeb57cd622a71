package media

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const KindExtendedVideo Kind = "extended_video"

const MimeTypeMP4 = "video/mp4"

// Media is the final artifact of a pipeline run. It is immutable once saved.
type Media struct {
	ID           uuid.UUID `json:"id"`
	ContentID    int64     `json:"content_id"`
	Kind         Kind      `json:"kind"`
	FilePath     string    `json:"file_path"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	IsSegmented  bool      `json:"is_segmented"`
	SegmentCount int       `json:"segment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewExtendedVideo(contentID int64, filePath string, fileSize int64, segmentCount int, now time.Time) *Media {
	return &Media{
		ID:           uuid.New(),
		ContentID:    contentID,
		Kind:         KindExtendedVideo,
		FilePath:     filePath,
		FileSize:     fileSize,
		MimeType:     MimeTypeMP4,
		IsSegmented:  segmentCount > 1,
		SegmentCount: segmentCount,
		CreatedAt:    now,
	}
}

type Repository interface {
	// ReplaceExtendedVideo stores m as the content's extended video and
	// removes the previous one in the same transaction, returning it (or nil).
	ReplaceExtendedVideo(ctx context.Context, m *Media) (*Media, error)
	FindExtendedVideo(ctx context.Context, contentID int64) (*Media, error)
}
