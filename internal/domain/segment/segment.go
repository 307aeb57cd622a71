package segment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DurationSeconds is the clip length every segment is generated at.
const DurationSeconds = 8

var (
	ErrSegmentNotFound   = errors.New("video segment not found")
	ErrInvalidTransition = errors.New("invalid segment status transition")
	ErrNonContiguous     = errors.New("segment numbers must be contiguous from 1")
)

type VideoSegment struct {
	ID              uuid.UUID  `json:"id"`
	ContentID       int64      `json:"content_id"`
	SegmentNumber   int        `json:"segment_number"`
	Prompt          string     `json:"prompt"`
	DurationSeconds int        `json:"duration_seconds"`
	Status          Status     `json:"status"`
	RemoteURI       *string    `json:"remote_uri"`
	OperationHandle *string    `json:"operation_handle"`
	ErrorMessage    *string    `json:"error_message"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	FailedAt        *time.Time `json:"failed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewBatch plans one PENDING segment per prompt, numbered from 1.
func NewBatch(contentID int64, prompts []string, now time.Time) []*VideoSegment {
	segments := make([]*VideoSegment, len(prompts))
	for i, p := range prompts {
		segments[i] = &VideoSegment{
			ID:              uuid.New(),
			ContentID:       contentID,
			SegmentNumber:   i + 1,
			Prompt:          p,
			DurationSeconds: DurationSeconds,
			Status:          StatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return segments
}

// ValidateBatch checks that a batch belongs to one content and is numbered 1..N.
func ValidateBatch(segments []*VideoSegment) error {
	for i, s := range segments {
		if s.SegmentNumber != i+1 {
			return fmt.Errorf("%w: position %d holds segment %d", ErrNonContiguous, i+1, s.SegmentNumber)
		}
		if i > 0 && s.ContentID != segments[0].ContentID {
			return fmt.Errorf("batch mixes content %d and %d", segments[0].ContentID, s.ContentID)
		}
	}
	return nil
}

func (s *VideoSegment) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

func (s *VideoSegment) MarkGenerating(now time.Time) error {
	if s.Status != StatusPending {
		return s.transitionError(StatusGenerating)
	}
	s.Status = StatusGenerating
	s.StartedAt = &now
	s.UpdatedAt = now
	return nil
}

func (s *VideoSegment) SetOperation(handle string, now time.Time) error {
	if s.Status != StatusGenerating {
		return fmt.Errorf("%w: operation handle requires %s, segment is %s", ErrInvalidTransition, StatusGenerating, s.Status)
	}
	s.OperationHandle = &handle
	s.UpdatedAt = now
	return nil
}

// MarkCompleted is the only place RemoteURI gets set.
func (s *VideoSegment) MarkCompleted(remoteURI string, now time.Time) error {
	if s.Status != StatusGenerating {
		return s.transitionError(StatusCompleted)
	}
	if remoteURI == "" {
		return fmt.Errorf("%w: completed segment needs a remote uri", ErrInvalidTransition)
	}
	s.Status = StatusCompleted
	s.RemoteURI = &remoteURI
	s.OperationHandle = nil
	s.ErrorMessage = nil
	s.CompletedAt = &now
	s.UpdatedAt = now
	return nil
}

func (s *VideoSegment) MarkFailed(message string, now time.Time) error {
	if s.IsTerminal() {
		return s.transitionError(StatusFailed)
	}
	s.Status = StatusFailed
	s.ErrorMessage = &message
	s.OperationHandle = nil
	s.RemoteURI = nil
	s.CompletedAt = nil
	s.FailedAt = &now
	s.UpdatedAt = now
	return nil
}

func (s *VideoSegment) transitionError(to Status) error {
	return fmt.Errorf("%w: segment %d of content %d cannot go from %s to %s",
		ErrInvalidTransition, s.SegmentNumber, s.ContentID, s.Status, to)
}

type Repository interface {
	// ReplaceBatch removes any previous segments of the content and inserts the new batch.
	ReplaceBatch(ctx context.Context, contentID int64, segments []*VideoSegment) error
	Update(ctx context.Context, s *VideoSegment) error
	FindByNumber(ctx context.Context, contentID int64, number int) (*VideoSegment, error)
	ListByContent(ctx context.Context, contentID int64) ([]*VideoSegment, error)
}
