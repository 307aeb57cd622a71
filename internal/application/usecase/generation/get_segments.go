package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
	"github.com/khoahotran/reel-forge/pkg/apperror"
)

type SegmentsOutput struct {
	ContentID        int64                    `json:"content_id"`
	GenerationStatus content.GenerationStatus `json:"generation_status"`
	GenerationError  *string                  `json:"generation_error"`
	VideoScript      []string                 `json:"video_script"`
	Segments         []*segment.VideoSegment  `json:"segments"`
}

type GetSegmentsUseCase struct {
	contentRepo content.Repository
	segmentRepo segment.Repository
}

func NewGetSegmentsUseCase(cr content.Repository, sr segment.Repository) *GetSegmentsUseCase {
	return &GetSegmentsUseCase{contentRepo: cr, segmentRepo: sr}
}

func (uc *GetSegmentsUseCase) Execute(ctx context.Context, contentID int64) (*SegmentsOutput, error) {
	c, err := uc.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, apperror.NewNotFound("content", fmt.Sprint(contentID))
		}
		return nil, apperror.NewInternal("failed to load content", err)
	}

	segs, err := uc.segmentRepo.ListByContent(ctx, contentID)
	if err != nil {
		return nil, apperror.NewInternal("failed to list segments", err)
	}

	return &SegmentsOutput{
		ContentID:        c.ID,
		GenerationStatus: c.GenerationStatus,
		GenerationError:  c.GenerationError,
		VideoScript:      c.VideoScript,
		Segments:         segs,
	}, nil
}
