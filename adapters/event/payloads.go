package event

import "time"

type GenerationRequestedPayload struct {
	JobID                  string    `json:"job_id"`
	ContentID              int64     `json:"content_id"`
	ContentIdea            string    `json:"content_idea"`
	DesiredDurationSeconds int       `json:"desired_duration_seconds"`
	AspectRatio            string    `json:"aspect_ratio"`
	ContentType            string    `json:"content_type"`
	TimeSlot               string    `json:"time_slot,omitempty"`
	RequestedAt            time.Time `json:"requested_at"`
}

type GenerationStatusPayload struct {
	JobID        string    `json:"job_id"`
	ContentID    int64     `json:"content_id"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	MediaID      string    `json:"media_id,omitempty"`
	FilePath     string    `json:"file_path,omitempty"`
	SegmentCount int       `json:"segment_count,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
