package video

import "errors"

var (
	ErrSafetyRejection  = errors.New("video request rejected by content safety filter")
	ErrSegmentTimeout   = errors.New("segment generation timed out")
	ErrSegmentFailed    = errors.New("segment generation failed")
	ErrFrameExtraction  = errors.New("frame extraction failed")
	ErrConcatenation    = errors.New("concatenation failed")
	ErrScriptGeneration = errors.New("script generation failed")
	ErrCleanup          = errors.New("cleanup of intermediate artifacts failed")
)
