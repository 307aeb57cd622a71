package video

import (
	"fmt"
	"strings"
)

// BuildBaselinePrompt renders segment 1, which establishes every baseline attribute.
func BuildBaselinePrompt(b Baseline, action string, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Segment 1 of %d, 8 seconds. ", total)
	sb.WriteString(b.describe())
	sb.WriteString(" Scene: ")
	sb.WriteString(strings.TrimSpace(action))
	if total > 1 {
		sb.WriteString(" The voiceover and music continue past the end of this clip without a pause.")
	}
	return sb.String()
}

// BuildContinuationPrompt renders segment number of total. The model keeps no
// memory between calls, so every baseline attribute is restated.
func BuildContinuationPrompt(b Baseline, number, total int, action string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Segment %d of %d, 8 seconds, continuing directly from the previous clip's final frame. ", number, total)
	fmt.Fprintf(&sb, "Maintain identical character: %s. ", b.Character)
	fmt.Fprintf(&sb, "Maintain identical setting: %s. ", b.Setting)
	fmt.Fprintf(&sb, "Maintain identical lighting: %s. ", b.Lighting)
	fmt.Fprintf(&sb, "Maintain identical camera style: %s. ", b.Camera)
	fmt.Fprintf(&sb, "Maintain identical color palette: %s. ", b.ColorPalette)
	fmt.Fprintf(&sb, "Maintain identical music: %s, same tempo. ", b.Music)
	fmt.Fprintf(&sb, "Maintain identical voice: %s. ", b.Voice)
	fmt.Fprintf(&sb, "Maintain identical aspect ratio %s and quality: %s. ", b.AspectRatio, b.Quality)
	sb.WriteString("Voiceover and music are continuous and gapless across the cut. ")
	sb.WriteString("Scene: ")
	sb.WriteString(strings.TrimSpace(action))
	if isClosing(number, total) {
		sb.WriteString(" End with a clear closing statement and a call to action spoken directly to camera.")
	}
	return sb.String()
}

func isClosing(number, total int) bool {
	return total > 2 && number == total
}

// BuildScript turns a baseline and per-segment actions into exactly len(actions) prompts.
func BuildScript(b Baseline, actions []string) []string {
	total := len(actions)
	prompts := make([]string, total)
	for i, a := range actions {
		if i == 0 {
			prompts[i] = BuildBaselinePrompt(b, a, total)
			continue
		}
		prompts[i] = BuildContinuationPrompt(b, i+1, total, a)
	}
	return prompts
}
