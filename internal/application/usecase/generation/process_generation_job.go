package generation

import (
	"context"
	"errors"
	"time"

	"github.com/khoahotran/reel-forge/adapters/event"
	"github.com/khoahotran/reel-forge/adapters/metrics"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/application/usecase/video"
	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/internal/domain/media"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type JobResult struct {
	Status content.GenerationStatus
	Error  string
	Media  *media.Media
}

// ProcessGenerationJobUseCase runs one admitted job. Pipeline failures are
// recorded and reported, not returned; the error return is for
// infrastructure problems that should leave the message uncommitted.
type ProcessGenerationJobUseCase struct {
	contentRepo content.Repository
	lock        service.AdmissionLock
	jobs        service.JobStatusStore
	publisher   EventPublisher
	pipeline    Pipeline
	logger      logger.Logger
}

func NewProcessGenerationJobUseCase(
	cr content.Repository,
	lock service.AdmissionLock,
	jobs service.JobStatusStore,
	pub EventPublisher,
	pipeline Pipeline,
	log logger.Logger,
) *ProcessGenerationJobUseCase {
	return &ProcessGenerationJobUseCase{contentRepo: cr, lock: lock, jobs: jobs, publisher: pub, pipeline: pipeline, logger: log}
}

func (uc *ProcessGenerationJobUseCase) Execute(ctx context.Context, p event.GenerationRequestedPayload) (*JobResult, error) {
	l := uc.logger.With(zap.String("job_id", p.JobID), zap.Int64("content_id", p.ContentID))

	lease, err := uc.lock.Acquire(ctx, p.JobID, p.ContentID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			l.Warn("Failed to release admission lock", zap.Error(err))
		}
	}()
	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	l.Info("Admission lock acquired, running pipeline")
	uc.record(ctx, l, p, content.GenerationRunning, "", nil)

	// once admitted, a run ends in success or failure, never in cancellation
	m, err := uc.pipeline.Execute(context.WithoutCancel(ctx), video.GenerateInput{
		ContentID:              p.ContentID,
		ContentIdea:            p.ContentIdea,
		DesiredDurationSeconds: p.DesiredDurationSeconds,
		AspectRatio:            p.AspectRatio,
		ContentType:            p.ContentType,
		TimeSlot:               p.TimeSlot,
	})
	if err != nil {
		msg := FailureMessage(err)
		l.Error("Extended video generation failed", err)
		uc.record(ctx, l, p, content.GenerationFailed, msg, nil)
		return &JobResult{Status: content.GenerationFailed, Error: msg}, nil
	}

	uc.record(ctx, l, p, content.GenerationCompleted, "", m)
	return &JobResult{Status: content.GenerationCompleted, Media: m}, nil
}

// record writes the outcome everywhere it is observed. Each write is best effort.
func (uc *ProcessGenerationJobUseCase) record(ctx context.Context, l logger.Logger, p event.GenerationRequestedPayload, status content.GenerationStatus, errMsg string, m *media.Media) {
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()

	var dbErr *string
	if errMsg != "" {
		dbErr = &errMsg
	}
	if err := uc.contentRepo.UpdateGenerationStatus(ctx, p.ContentID, status, dbErr); err != nil {
		l.Error("Failed to update content generation status", err, zap.String("status", string(status)))
	}

	js := service.JobStatus{JobID: p.JobID, ContentID: p.ContentID, Status: string(status), Error: errMsg, UpdatedAt: now}
	sp := event.GenerationStatusPayload{JobID: p.JobID, ContentID: p.ContentID, Status: string(status), Error: errMsg, OccurredAt: now}
	if m != nil {
		js.MediaID = m.ID.String()
		sp.MediaID = m.ID.String()
		sp.FilePath = m.FilePath
		sp.SegmentCount = m.SegmentCount
	}
	if err := uc.jobs.Set(ctx, js); err != nil {
		l.Warn("Failed to cache job status", zap.Error(err))
	}
	if err := uc.publisher.PublishGenerationStatus(ctx, sp); err != nil {
		l.Warn("Failed to publish job status", zap.Error(err))
	}
}

// FailureMessage reports the innermost cause of a pipeline error.
func FailureMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return appErr.Details + ": " + appErr.Err.Error()
		}
		return appErr.Message + ": " + appErr.Details
	}
	return err.Error()
}
