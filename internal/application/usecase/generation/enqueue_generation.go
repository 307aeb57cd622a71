package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khoahotran/reel-forge/adapters/event"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/application/usecase/video"
	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type EnqueueInput struct {
	ContentID              int64
	ContentIdea            string
	DesiredDurationSeconds int
	AspectRatio            string
	ContentType            string
	TimeSlot               string
}

type EnqueueOutput struct {
	JobID        string                   `json:"job_id"`
	ContentID    int64                    `json:"content_id"`
	SegmentCount int                      `json:"segment_count"`
	Status       content.GenerationStatus `json:"status"`
}

type EnqueueGenerationUseCase struct {
	contentRepo content.Repository
	jobs        service.JobStatusStore
	publisher   EventPublisher
	logger      logger.Logger
}

func NewEnqueueGenerationUseCase(cr content.Repository, jobs service.JobStatusStore, pub EventPublisher, log logger.Logger) *EnqueueGenerationUseCase {
	return &EnqueueGenerationUseCase{contentRepo: cr, jobs: jobs, publisher: pub, logger: log}
}

func (uc *EnqueueGenerationUseCase) Execute(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	if input.DesiredDurationSeconds < 1 {
		return nil, apperror.NewInvalidInput("desired_duration_seconds must be at least 1", content.ErrInvalidDuration)
	}
	aspect, err := content.ParseAspectRatio(input.AspectRatio)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	ct, err := content.ParseContentType(input.ContentType)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	slot, err := content.ParseTimeSlot(input.TimeSlot)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	c, err := uc.contentRepo.FindByID(ctx, input.ContentID)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, apperror.NewNotFound("content", fmt.Sprint(input.ContentID))
		}
		return nil, apperror.NewInternal("failed to load content", err)
	}
	idea := strings.TrimSpace(input.ContentIdea)
	if idea == "" {
		idea = c.Idea
	}
	if idea == "" {
		return nil, apperror.NewInvalidInput("content has no idea to generate from", nil)
	}

	if err := uc.contentRepo.QueueExtendedVideo(ctx, c.ID, input.DesiredDurationSeconds); err != nil {
		if errors.Is(err, content.ErrGenerationActive) {
			return nil, apperror.NewConflict("generation job", "content_id", fmt.Sprint(c.ID))
		}
		return nil, apperror.NewInternal("failed to queue extended video", err)
	}

	jobID := uuid.NewString()
	now := time.Now().UTC()
	l := uc.logger.With(zap.String("job_id", jobID), zap.Int64("content_id", c.ID))

	if err := uc.jobs.Set(ctx, service.JobStatus{JobID: jobID, ContentID: c.ID, Status: string(content.GenerationQueued), UpdatedAt: now}); err != nil {
		l.Warn("Failed to cache job status", zap.Error(err))
	}

	err = uc.publisher.PublishGenerationRequested(ctx, event.GenerationRequestedPayload{
		JobID:                  jobID,
		ContentID:              c.ID,
		ContentIdea:            idea,
		DesiredDurationSeconds: input.DesiredDurationSeconds,
		AspectRatio:            aspect,
		ContentType:            string(ct),
		TimeSlot:               string(slot),
		RequestedAt:            now,
	})
	if err != nil {
		msg := "enqueue failed: " + err.Error()
		if uerr := uc.contentRepo.UpdateGenerationStatus(ctx, c.ID, content.GenerationFailed, &msg); uerr != nil {
			l.Error("Failed to roll back generation status", uerr)
		}
		return nil, apperror.NewUnavailable("failed to enqueue generation job", err)
	}

	l.Info("Generation job enqueued", zap.Int("desired_duration", input.DesiredDurationSeconds))
	return &EnqueueOutput{
		JobID:        jobID,
		ContentID:    c.ID,
		SegmentCount: video.SegmentCount(input.DesiredDurationSeconds),
		Status:       content.GenerationQueued,
	}, nil
}
