package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khoahotran/reel-forge/adapters/metrics"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/khoahotran/reel-forge/pkg/poll"
	"go.uber.org/zap"
)

type OrchestratorConfig struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	WaitInterval    time.Duration
	WaitTimeout     time.Duration
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PollInterval:    10 * time.Second,
		PollMaxAttempts: 60,
		WaitInterval:    5 * time.Second,
		WaitTimeout:     300 * time.Second,
	}
}

// FrameSource yields a reference image locator for a completed segment.
type FrameSource interface {
	Extract(ctx context.Context, contentID int64, segmentNumber int, videoURI string) (string, error)
}

type OrchestrateInput struct {
	ContentID   int64
	Prompts     []string
	AspectRatio string
}

// SegmentOrchestrator owns every status transition of a content's segments.
type SegmentOrchestrator struct {
	segments  segment.Repository
	generator service.VideoGenerator
	frames    FrameSource
	store     service.ObjectStore
	sanitizer *Sanitizer
	cfg       OrchestratorConfig
	logger    logger.Logger
	now       func() time.Time
}

func NewSegmentOrchestrator(
	segments segment.Repository,
	generator service.VideoGenerator,
	frames FrameSource,
	store service.ObjectStore,
	sanitizer *Sanitizer,
	cfg OrchestratorConfig,
	log logger.Logger,
) *SegmentOrchestrator {
	return &SegmentOrchestrator{
		segments:  segments,
		generator: generator,
		frames:    frames,
		store:     store,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

type rejection struct {
	reasons []string
}

// Run generates every segment in order and returns them all COMPLETED, or
// stops at the first failure leaving that segment FAILED.
func (o *SegmentOrchestrator) Run(ctx context.Context, in OrchestrateInput) ([]*segment.VideoSegment, error) {
	l := o.logger.With(zap.Int64("content_id", in.ContentID))
	if len(in.Prompts) == 0 {
		return nil, fmt.Errorf("%w: no prompts for content %d", ErrSegmentFailed, in.ContentID)
	}

	seed := SeedForContent(in.ContentID)
	segs := segment.NewBatch(in.ContentID, in.Prompts, o.now())
	if err := segment.ValidateBatch(segs); err != nil {
		return nil, err
	}
	if err := o.segments.ReplaceBatch(ctx, in.ContentID, segs); err != nil {
		return nil, fmt.Errorf("create segments: %w", err)
	}
	l.Info("Planned segments", zap.Int("count", len(segs)), zap.Uint32("seed", seed))

	for i, seg := range segs {
		sl := l.With(zap.Int("segment_number", seg.SegmentNumber))

		if err := seg.MarkGenerating(o.now()); err != nil {
			return nil, err
		}
		if err := o.segments.Update(ctx, seg); err != nil {
			err = fmt.Errorf("update segment %d: %w", seg.SegmentNumber, err)
			o.fail(ctx, sl, seg, err)
			return nil, err
		}

		uri, err := o.generateSegment(ctx, sl, seg, segs[:i], seed, in.AspectRatio)
		if err == nil {
			err = o.complete(ctx, seg, uri)
		}
		if err != nil {
			o.fail(ctx, sl, seg, err)
			return nil, err
		}

		metrics.SegmentsTotal.WithLabelValues(string(segment.StatusCompleted)).Inc()
		sl.Info("Segment completed", zap.String("remote_uri", uri))
	}

	return segs, nil
}

func (o *SegmentOrchestrator) generateSegment(ctx context.Context, l logger.Logger, seg *segment.VideoSegment, previous []*segment.VideoSegment, seed uint32, aspect string) (string, error) {
	req := service.VideoRequest{
		Prompt:          seg.Prompt,
		DurationSeconds: seg.DurationSeconds,
		AspectRatio:     aspect,
		Seed:            seed,
		OutputURI:       o.store.URI(SegmentOutputPrefix(seg.ContentID, seg.SegmentNumber)),
	}

	if len(previous) > 0 {
		prevNumber := seg.SegmentNumber - 1
		prev, err := o.awaitCompleted(ctx, seg.ContentID, prevNumber)
		if err != nil {
			return "", err
		}
		ref, err := o.frames.Extract(ctx, seg.ContentID, prevNumber, *prev.RemoteURI)
		if err != nil {
			return "", err
		}
		req.ReferenceImageURI = ref
	}

	retried := false
	for {
		uri, rej, err := o.attempt(ctx, l, seg, req)
		if err != nil {
			return "", err
		}
		if rej == nil {
			return uri, nil
		}
		if retried {
			return "", fmt.Errorf("%w: segment %d rejected again after simplified retry: %s",
				ErrSafetyRejection, seg.SegmentNumber, strings.Join(rej.reasons, "; "))
		}
		retried = true
		req.Prompt = o.sanitizer.Sanitize(req.Prompt)
		metrics.SafetyRetriesTotal.Inc()
		l.Warn("Safety filter rejected segment, retrying with simplified prompt",
			zap.Strings("reasons", rej.reasons), zap.Int("prompt_len", len(req.Prompt)))
	}
}

// awaitCompleted blocks until the given segment is COMPLETED. FAILED is fatal.
func (o *SegmentOrchestrator) awaitCompleted(ctx context.Context, contentID int64, number int) (*segment.VideoSegment, error) {
	var found *segment.VideoSegment
	err := poll.Until(ctx, poll.Policy{Interval: o.cfg.WaitInterval, Timeout: o.cfg.WaitTimeout}, func(ctx context.Context, _ int) (bool, error) {
		s, err := o.segments.FindByNumber(ctx, contentID, number)
		if err != nil {
			return false, fmt.Errorf("load segment %d: %w", number, err)
		}
		switch s.Status {
		case segment.StatusCompleted:
			found = s
			return true, nil
		case segment.StatusFailed:
			return false, fmt.Errorf("%w: previous segment %d failed", ErrSegmentFailed, number)
		}
		return false, nil
	})
	if errors.Is(err, poll.ErrTimeout) {
		return nil, fmt.Errorf("%w: waiting for segment %d: %v", ErrSegmentTimeout, number, err)
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (o *SegmentOrchestrator) attempt(ctx context.Context, l logger.Logger, seg *segment.VideoSegment, req service.VideoRequest) (string, *rejection, error) {
	sub, err := o.generator.Submit(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: submit segment %d: %v", ErrSegmentFailed, seg.SegmentNumber, err)
	}
	if sub.Rejected {
		return "", &rejection{reasons: sub.Reasons}, nil
	}
	if len(sub.Payload) > 0 {
		uri, err := o.upload(ctx, seg, sub.Payload)
		return uri, nil, err
	}
	if sub.OperationHandle == "" {
		return "", nil, fmt.Errorf("%w: submit for segment %d returned neither handle nor video", ErrSegmentFailed, seg.SegmentNumber)
	}

	if err := seg.SetOperation(sub.OperationHandle, o.now()); err != nil {
		return "", nil, err
	}
	if err := o.segments.Update(ctx, seg); err != nil {
		return "", nil, fmt.Errorf("update segment %d: %w", seg.SegmentNumber, err)
	}
	l.Info("Submitted segment", zap.String("operation", sub.OperationHandle))

	var result *service.PollResult
	policy := poll.Policy{Interval: o.cfg.PollInterval, MaxAttempts: o.cfg.PollMaxAttempts}
	err = poll.Until(ctx, policy, func(ctx context.Context, attempt int) (bool, error) {
		r, err := o.generator.Poll(ctx, sub.OperationHandle)
		if err != nil {
			l.Warn("Poll request failed", zap.Int("attempt", attempt), zap.Error(err))
			return false, nil
		}
		if r.Error != "" {
			return false, fmt.Errorf("%w: segment %d: %s", ErrSegmentFailed, seg.SegmentNumber, r.Error)
		}
		if !r.Done {
			return false, nil
		}
		result = r
		return true, nil
	})
	if errors.Is(err, poll.ErrTimeout) {
		return "", nil, fmt.Errorf("%w: segment %d: %v", ErrSegmentTimeout, seg.SegmentNumber, err)
	}
	if err != nil {
		return "", nil, err
	}

	switch {
	case result.Rejected:
		return "", &rejection{reasons: result.Reasons}, nil
	case result.RemoteURI != "":
		return result.RemoteURI, nil, nil
	case len(result.Payload) > 0:
		uri, err := o.upload(ctx, seg, result.Payload)
		return uri, nil, err
	}
	return "", nil, fmt.Errorf("%w: segment %d finished without a video", ErrSegmentFailed, seg.SegmentNumber)
}

func (o *SegmentOrchestrator) upload(ctx context.Context, seg *segment.VideoSegment, payload []byte) (string, error) {
	uri, err := o.store.Put(ctx, SegmentPath(seg.ContentID, seg.SegmentNumber), payload, "video/mp4")
	if err != nil {
		return "", fmt.Errorf("%w: upload segment %d: %v", ErrSegmentFailed, seg.SegmentNumber, err)
	}
	return uri, nil
}

// complete persists COMPLETED on a copy so seg stays GENERATING, and can
// still be marked FAILED, when the write does not land.
func (o *SegmentOrchestrator) complete(ctx context.Context, seg *segment.VideoSegment, uri string) error {
	done := *seg
	if err := done.MarkCompleted(uri, o.now()); err != nil {
		return err
	}
	if err := o.segments.Update(ctx, &done); err != nil {
		return fmt.Errorf("update segment %d: %w", seg.SegmentNumber, err)
	}
	*seg = done
	return nil
}

// fail records the terminal failure. The original error is what the caller sees.
func (o *SegmentOrchestrator) fail(ctx context.Context, l logger.Logger, seg *segment.VideoSegment, cause error) {
	metrics.SegmentsTotal.WithLabelValues(string(segment.StatusFailed)).Inc()
	l.Error("Segment failed", cause)
	if err := seg.MarkFailed(cause.Error(), o.now()); err != nil {
		l.Error("Cannot mark segment failed", err)
		return
	}
	// the run context may already be done; the diagnostic must still land
	if err := o.segments.Update(context.WithoutCancel(ctx), seg); err != nil {
		l.Error("Failed to persist segment failure", err)
	}
}
