package generation

import (
	"context"

	"github.com/khoahotran/reel-forge/adapters/event"
	"github.com/khoahotran/reel-forge/internal/application/usecase/video"
	"github.com/khoahotran/reel-forge/internal/domain/media"
)

type EventPublisher interface {
	PublishGenerationRequested(ctx context.Context, p event.GenerationRequestedPayload) error
	PublishGenerationStatus(ctx context.Context, p event.GenerationStatusPayload) error
}

// Pipeline is satisfied by video.GenerateExtendedVideoUseCase.
type Pipeline interface {
	Execute(ctx context.Context, input video.GenerateInput) (*media.Media, error)
}
