package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/khoahotran/reel-forge/internal/domain/media"
	"github.com/khoahotran/reel-forge/pkg/apperror"
)

type GetMediaUseCase struct {
	mediaRepo media.Repository
}

func NewGetMediaUseCase(mr media.Repository) *GetMediaUseCase {
	return &GetMediaUseCase{mediaRepo: mr}
}

func (uc *GetMediaUseCase) Execute(ctx context.Context, contentID int64) (*media.Media, error) {
	m, err := uc.mediaRepo.FindExtendedVideo(ctx, contentID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewNotFound("extended video", fmt.Sprint(contentID))
		}
		return nil, apperror.NewInternal("failed to load media", err)
	}
	return m, nil
}
