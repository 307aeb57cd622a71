package video

import "fmt"

// Remote layout for intermediates. Everything lives under ContentPrefix so
// cleanup can remove it in one call.

func ContentPrefix(contentID int64) string {
	return fmt.Sprintf("content/%d/", contentID)
}

func SegmentPath(contentID int64, number int) string {
	return fmt.Sprintf("content/%d/segments/segment_%d.mp4", contentID, number)
}

func SegmentOutputPrefix(contentID int64, number int) string {
	return fmt.Sprintf("content/%d/segments/%d/", contentID, number)
}

func FramePath(contentID int64, number int) string {
	return fmt.Sprintf("content/%d/frames/segment_%d.png", contentID, number)
}
