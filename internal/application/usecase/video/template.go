package video

import (
	"fmt"
	"strings"

	"github.com/khoahotran/reel-forge/internal/domain/content"
)

// TemplateScript builds a script without any model call. It cannot fail.
func TemplateScript(req ScriptRequest) *Script {
	n := req.SegmentCount
	if n < 1 {
		n = 1
	}
	idea := strings.TrimSpace(req.Idea)
	if idea == "" {
		idea = "today's topic"
	}
	b := DefaultBaseline(idea, req.ContentType, req.AspectRatio, req.TimeSlot)

	actions := make([]string, n)
	for i := range actions {
		actions[i] = templateAction(idea, req.ContentType, i+1, n)
	}
	return &Script{Baseline: b, Actions: actions, Prompts: BuildScript(b, actions), Source: SourceTemplate}
}

func templateAction(idea string, ct content.ContentType, number, total int) string {
	verb := "says with energy"
	if ct == content.TypeStory {
		verb = "says softly"
	}
	switch {
	case number == 1 && total == 1:
		return fmt.Sprintf("The presenter looks into the camera and %s a short, complete take on %s, ending with a smile.", verb, idea)
	case number == 1:
		return fmt.Sprintf("The presenter looks into the camera and %s an opening hook about %s.", verb, idea)
	case number == total:
		return fmt.Sprintf("The presenter steps slightly closer and %s the final takeaway about %s.", verb, idea)
	}
	return fmt.Sprintf("The presenter gestures naturally and %s point %d about %s, building on the previous line.", verb, number-1, idea)
}
