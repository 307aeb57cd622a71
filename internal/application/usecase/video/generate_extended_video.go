package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/khoahotran/reel-forge/adapters/metrics"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/internal/domain/media"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("video_usecase")

type GenerateInput struct {
	ContentID              int64
	ContentIdea            string
	DesiredDurationSeconds int
	AspectRatio            string
	ContentType            string
	TimeSlot               string
}

type GenerateExtendedVideoUseCase struct {
	contentRepo  content.Repository
	mediaRepo    media.Repository
	composer     *ScriptComposer
	orchestrator *SegmentOrchestrator
	concat       *ConcatenationEngine
	store        service.ObjectStore
	cleanup      *Cleanup
	mediaDir     string
	logger       logger.Logger
}

func NewGenerateExtendedVideoUseCase(
	cr content.Repository,
	mr media.Repository,
	composer *ScriptComposer,
	orchestrator *SegmentOrchestrator,
	concat *ConcatenationEngine,
	store service.ObjectStore,
	cleanup *Cleanup,
	mediaDir string,
	log logger.Logger,
) *GenerateExtendedVideoUseCase {
	return &GenerateExtendedVideoUseCase{
		contentRepo:  cr,
		mediaRepo:    mr,
		composer:     composer,
		orchestrator: orchestrator,
		concat:       concat,
		store:        store,
		cleanup:      cleanup,
		mediaDir:     mediaDir,
		logger:       log,
	}
}

// Execute runs the whole pipeline for one content. It returns the stored
// Media or an error; a failed run never leaves a Media behind.
func (uc *GenerateExtendedVideoUseCase) Execute(ctx context.Context, input GenerateInput) (*media.Media, error) {
	ctx, span := tracer.Start(ctx, "GenerateExtendedVideoUseCase.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("content.id", input.ContentID),
		attribute.Int("content.desired_duration", input.DesiredDurationSeconds),
	)

	m, err := uc.execute(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
	return m, nil
}

func (uc *GenerateExtendedVideoUseCase) execute(ctx context.Context, input GenerateInput) (*media.Media, error) {
	if input.ContentID <= 0 {
		return nil, apperror.NewInvalidInput("content id must be positive", nil)
	}
	if input.DesiredDurationSeconds < 1 {
		return nil, apperror.NewInvalidInput("desired duration must be at least 1 second", content.ErrInvalidDuration)
	}
	aspect, err := content.ParseAspectRatio(input.AspectRatio)
	if err != nil {
		return nil, apperror.NewInvalidInput(input.AspectRatio, err)
	}
	ct, err := content.ParseContentType(input.ContentType)
	if err != nil {
		return nil, apperror.NewInvalidInput(input.ContentType, err)
	}
	slot, err := content.ParseTimeSlot(input.TimeSlot)
	if err != nil {
		return nil, apperror.NewInvalidInput(input.TimeSlot, err)
	}

	l := uc.logger.With(zap.Int64("content_id", input.ContentID))
	totalStart := time.Now()

	plan := PlanSegments(input.DesiredDurationSeconds)
	l.Info("Starting extended video pipeline",
		zap.Int("desired_duration", input.DesiredDurationSeconds),
		zap.Int("segment_count", len(plan)),
		zap.String("content_type", string(ct)),
		zap.String("aspect_ratio", aspect))

	var script *Script
	err = uc.stage(ctx, "script", func(ctx context.Context) error {
		script = uc.composer.Compose(ctx, ScriptRequest{
			ContentID:    input.ContentID,
			Idea:         input.ContentIdea,
			ContentType:  ct,
			AspectRatio:  aspect,
			TimeSlot:     slot,
			SegmentCount: len(plan),
		})
		return uc.contentRepo.SaveVideoScript(ctx, input.ContentID, script.Prompts)
	})
	if err != nil {
		return nil, fmt.Errorf("save video script: %w", err)
	}
	l.Info("Script ready", zap.String("source", string(script.Source)))

	var segs []*segment.VideoSegment
	err = uc.stage(ctx, "segments", func(ctx context.Context) error {
		segs, err = uc.orchestrator.Run(ctx, OrchestrateInput{ContentID: input.ContentID, Prompts: script.Prompts, AspectRatio: aspect})
		return err
	})
	if err != nil {
		return nil, err
	}

	var buffers [][]byte
	err = uc.stage(ctx, "download", func(ctx context.Context) error {
		buffers, err = uc.download(ctx, segs)
		return err
	})
	if err != nil {
		return nil, err
	}

	var final []byte
	err = uc.stage(ctx, "concat", func(ctx context.Context) error {
		final, err = uc.concat.Concatenate(ctx, input.ContentID, ct, buffers)
		return err
	})
	if err != nil {
		return nil, err
	}

	var m *media.Media
	err = uc.stage(ctx, "persist", func(ctx context.Context) error {
		m, err = uc.persist(ctx, l, input.ContentID, final, len(segs))
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = uc.stage(ctx, "cleanup", func(ctx context.Context) error {
		_, err := uc.cleanup.Run(ctx, input.ContentID)
		return err
	})

	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalStart).Seconds())
	l.Info("Extended video ready",
		zap.String("media_id", m.ID.String()),
		zap.String("file_path", m.FilePath),
		zap.Int64("file_size", m.FileSize))
	return m, nil
}

func (uc *GenerateExtendedVideoUseCase) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (uc *GenerateExtendedVideoUseCase) download(ctx context.Context, segs []*segment.VideoSegment) ([][]byte, error) {
	buffers := make([][]byte, len(segs))
	for i, s := range segs {
		if s.Status != segment.StatusCompleted || s.RemoteURI == nil {
			return nil, fmt.Errorf("%w: segment %d is %s", ErrSegmentFailed, s.SegmentNumber, s.Status)
		}
		data, err := uc.store.Get(ctx, *s.RemoteURI)
		if err != nil {
			return nil, fmt.Errorf("%w: download segment %d: %v", ErrConcatenation, s.SegmentNumber, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: segment %d video is empty", ErrConcatenation, s.SegmentNumber)
		}
		buffers[i] = data
	}
	return buffers, nil
}

func (uc *GenerateExtendedVideoUseCase) persist(ctx context.Context, l logger.Logger, contentID int64, data []byte, segmentCount int) (*media.Media, error) {
	if err := os.MkdirAll(uc.mediaDir, 0755); err != nil {
		return nil, apperror.NewInternal("create media dir", err)
	}

	path := filepath.Join(uc.mediaDir, fmt.Sprintf("extended_%d_%s.mp4", contentID, uuid.NewString()[:8]))
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, apperror.NewInternal("write final video", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, apperror.NewInternal("move final video into place", err)
	}

	m := media.NewExtendedVideo(contentID, path, int64(len(data)), segmentCount, time.Now())
	previous, err := uc.mediaRepo.ReplaceExtendedVideo(ctx, m)
	if err != nil {
		os.Remove(path)
		return nil, apperror.NewInternal("save media", err)
	}

	if previous != nil && previous.FilePath != path {
		if err := os.Remove(previous.FilePath); err != nil && !os.IsNotExist(err) {
			l.Warn("Failed to remove previous extended video file", zap.String("file_path", previous.FilePath), zap.Error(err))
		}
	}
	return m, nil
}
