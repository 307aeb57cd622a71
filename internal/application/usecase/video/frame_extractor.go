package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

// endOffset seeks just before end of stream; the very last frame is often truncated.
const endOffset = "-0.1"

type FrameExtractor struct {
	store   service.ObjectStore
	ffmpeg  service.FFmpegRunner
	tempDir string
	logger  logger.Logger
}

func NewFrameExtractor(store service.ObjectStore, ffmpeg service.FFmpegRunner, tempDir string, log logger.Logger) *FrameExtractor {
	return &FrameExtractor{store: store, ffmpeg: ffmpeg, tempDir: tempDir, logger: log}
}

// Extract pulls the final frame of a segment video at source resolution and
// uploads it as the reference image for the next segment.
func (e *FrameExtractor) Extract(ctx context.Context, contentID int64, segmentNumber int, videoURI string) (string, error) {
	l := e.logger.With(zap.Int64("content_id", contentID), zap.Int("segment_number", segmentNumber))

	data, err := e.store.Get(ctx, videoURI)
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %v", ErrFrameExtraction, videoURI, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: segment %d video is empty", ErrFrameExtraction, segmentNumber)
	}

	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create temp dir: %v", ErrFrameExtraction, err)
	}
	workDir, err := os.MkdirTemp(e.tempDir, fmt.Sprintf("frame-%d-%d-", contentID, segmentNumber))
	if err != nil {
		return "", fmt.Errorf("%w: create workdir: %v", ErrFrameExtraction, err)
	}
	defer os.RemoveAll(workDir)

	in := filepath.Join(workDir, "segment.mp4")
	out := filepath.Join(workDir, "last_frame.png")
	if err := os.WriteFile(in, data, 0644); err != nil {
		return "", fmt.Errorf("%w: write segment: %v", ErrFrameExtraction, err)
	}

	err = e.ffmpeg.Run(ctx,
		"-y",
		"-sseof", endOffset,
		"-i", in,
		"-frames:v", "1",
		"-update", "1",
		out,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFrameExtraction, err)
	}

	img, err := os.ReadFile(out)
	if err != nil || len(img) == 0 {
		return "", fmt.Errorf("%w: no frame produced for segment %d", ErrFrameExtraction, segmentNumber)
	}

	uri, err := e.store.Put(ctx, FramePath(contentID, segmentNumber), img, "image/png")
	if err != nil {
		return "", fmt.Errorf("%w: upload frame: %v", ErrFrameExtraction, err)
	}

	l.Info("Extracted reference frame", zap.String("frame_uri", uri), zap.Int("bytes", len(img)))
	return uri, nil
}
