package http

import (
	"time"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/application/usecase/generation"
	"github.com/khoahotran/reel-forge/internal/domain/media"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
)

type GenerateExtendedVideoRequest struct {
	ContentIdea            string `json:"content_idea"`
	DesiredDurationSeconds int    `json:"desired_duration_seconds" binding:"required"`
	AspectRatio            string `json:"aspect_ratio"`
	ContentType            string `json:"content_type"`
	TimeSlot               string `json:"time_slot"`
}

type SegmentDTO struct {
	SegmentNumber   int        `json:"segment_number"`
	Status          string     `json:"status"`
	DurationSeconds int        `json:"duration_seconds"`
	Prompt          string     `json:"prompt"`
	RemoteURI       *string    `json:"remote_uri,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	FailedAt        *time.Time `json:"failed_at,omitempty"`
}

type SegmentsResponse struct {
	ContentID        int64        `json:"content_id"`
	GenerationStatus string       `json:"generation_status"`
	GenerationError  *string      `json:"generation_error,omitempty"`
	Completed        int          `json:"completed"`
	Total            int          `json:"total"`
	Segments         []SegmentDTO `json:"segments"`
}

type MediaDTO struct {
	ID           string    `json:"id"`
	ContentID    int64     `json:"content_id"`
	FilePath     string    `json:"file_path"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	IsSegmented  bool      `json:"is_segmented"`
	SegmentCount int       `json:"segment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type LockDTO struct {
	Held       bool       `json:"held"`
	JobID      string     `json:"job_id,omitempty"`
	ContentID  int64      `json:"content_id,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	TTLLeftMs  int64      `json:"ttl_left_ms,omitempty"`
}

func ToSegmentDTO(s *segment.VideoSegment) SegmentDTO {
	return SegmentDTO{
		SegmentNumber:   s.SegmentNumber,
		Status:          string(s.Status),
		DurationSeconds: s.DurationSeconds,
		Prompt:          s.Prompt,
		RemoteURI:       s.RemoteURI,
		ErrorMessage:    s.ErrorMessage,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		FailedAt:        s.FailedAt,
	}
}

func ToSegmentsResponse(out *generation.SegmentsOutput) SegmentsResponse {
	resp := SegmentsResponse{
		ContentID:        out.ContentID,
		GenerationStatus: string(out.GenerationStatus),
		GenerationError:  out.GenerationError,
		Total:            len(out.Segments),
		Segments:         make([]SegmentDTO, len(out.Segments)),
	}
	for i, s := range out.Segments {
		resp.Segments[i] = ToSegmentDTO(s)
		if s.Status == segment.StatusCompleted {
			resp.Completed++
		}
	}
	return resp
}

func ToMediaDTO(m *media.Media) MediaDTO {
	return MediaDTO{
		ID:           m.ID.String(),
		ContentID:    m.ContentID,
		FilePath:     m.FilePath,
		FileSize:     m.FileSize,
		MimeType:     m.MimeType,
		IsSegmented:  m.IsSegmented,
		SegmentCount: m.SegmentCount,
		CreatedAt:    m.CreatedAt,
	}
}

func ToLockDTO(h *service.LockHolder) LockDTO {
	if h == nil {
		return LockDTO{}
	}
	acquired := h.AcquiredAt
	return LockDTO{
		Held:       true,
		JobID:      h.JobID,
		ContentID:  h.ContentID,
		AcquiredAt: &acquired,
		TTLLeftMs:  h.TTLLeft.Milliseconds(),
	}
}
