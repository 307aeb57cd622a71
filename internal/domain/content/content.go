package content

import (
	"context"
	"errors"
	"time"
)

type ContentType string

const (
	TypeReel  ContentType = "reel"
	TypeStory ContentType = "story"
)

type GenerationStatus string

const (
	GenerationIdle      GenerationStatus = "idle"
	GenerationQueued    GenerationStatus = "queued"
	GenerationRunning   GenerationStatus = "running"
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

// TimeSlot is the posting window a piece of content is scheduled for.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
	SlotNight     TimeSlot = "night"
)

const (
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
	AspectSquare    = "1:1"
)

var (
	ErrContentNotFound    = errors.New("content not found")
	ErrInvalidContentType = errors.New("content type must be reel or story")
	ErrInvalidAspectRatio = errors.New("aspect ratio must be one of 16:9, 9:16, 1:1")
	ErrInvalidTimeSlot    = errors.New("time slot must be morning, afternoon, evening or night")
	ErrInvalidDuration    = errors.New("desired duration must be at least 1 second")
	ErrGenerationActive   = errors.New("content already has a queued or running generation")
)

type Content struct {
	ID                     int64            `json:"id"`
	Idea                   string           `json:"idea"`
	ContentType            ContentType      `json:"content_type"`
	AspectRatio            string           `json:"aspect_ratio"`
	DesiredDurationSeconds int              `json:"desired_duration_seconds"`
	IsExtendedVideo        bool             `json:"is_extended_video"`
	VideoScript            []string         `json:"video_script"`
	GenerationStatus       GenerationStatus `json:"generation_status"`
	GenerationError        *string          `json:"generation_error"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case "":
		return TypeReel, nil
	case TypeReel, TypeStory:
		return ContentType(s), nil
	}
	return "", ErrInvalidContentType
}

func ParseAspectRatio(s string) (string, error) {
	switch s {
	case "":
		return AspectPortrait, nil
	case AspectLandscape, AspectPortrait, AspectSquare:
		return s, nil
	}
	return "", ErrInvalidAspectRatio
}

func ParseTimeSlot(s string) (TimeSlot, error) {
	switch TimeSlot(s) {
	case "", SlotMorning, SlotAfternoon, SlotEvening, SlotNight:
		return TimeSlot(s), nil
	}
	return "", ErrInvalidTimeSlot
}

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Content, error)
	// QueueExtendedVideo marks the content as an extended video and moves it to
	// queued in one step. It returns ErrGenerationActive when a job is already
	// queued or running.
	QueueExtendedVideo(ctx context.Context, id int64, desiredDurationSeconds int) error
	SaveVideoScript(ctx context.Context, id int64, script []string) error
	UpdateGenerationStatus(ctx context.Context, id int64, status GenerationStatus, errMsg *string) error
}
