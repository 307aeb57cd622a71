package video

import "github.com/khoahotran/reel-forge/internal/domain/segment"

// trimSeconds is shaved off the request to avoid the model's truncated last frame.
const trimSeconds = 1

type PlannedSegment struct {
	Number          int
	DurationSeconds int
}

// SegmentCount maps a requested total duration onto the number of 8 second clips.
func SegmentCount(desiredSeconds int) int {
	adjusted := desiredSeconds - trimSeconds
	if adjusted < segment.DurationSeconds {
		adjusted = segment.DurationSeconds
	}
	switch {
	case adjusted <= 8:
		return 1
	case adjusted <= 16:
		return 2
	case adjusted <= 24:
		return 3
	case adjusted <= 32:
		return 4
	}
	return (adjusted + segment.DurationSeconds - 1) / segment.DurationSeconds
}

func PlanSegments(desiredSeconds int) []PlannedSegment {
	n := SegmentCount(desiredSeconds)
	plan := make([]PlannedSegment, n)
	for i := range plan {
		plan[i] = PlannedSegment{Number: i + 1, DurationSeconds: segment.DurationSeconds}
	}
	return plan
}

const seedModulus = 4294967295

// SeedForContent derives the generation seed shared by every segment of a content.
func SeedForContent(contentID int64) uint32 {
	id := contentID % seedModulus
	if id < 0 {
		id += seedModulus
	}
	return uint32((uint64(id) * 1_000_000) % seedModulus)
}
