package video

import (
	"fmt"
	"strings"

	"github.com/khoahotran/reel-forge/internal/domain/content"
)

// Baseline is the look and sound established by segment 1 and carried unchanged
// into every later segment.
type Baseline struct {
	Character    string `json:"character" yaml:"character"`
	Setting      string `json:"setting" yaml:"setting"`
	Lighting     string `json:"lighting" yaml:"lighting"`
	Camera       string `json:"camera" yaml:"camera"`
	ColorPalette string `json:"color_palette" yaml:"color_palette"`
	Music        string `json:"music" yaml:"music"`
	Voice        string `json:"voice" yaml:"voice"`
	AspectRatio  string `json:"aspect_ratio" yaml:"aspect_ratio"`
	Quality      string `json:"quality" yaml:"quality"`
}

// Complete fills blank attributes from fallback.
func (b Baseline) Complete(fallback Baseline) Baseline {
	fill := func(v *string, f string) {
		if strings.TrimSpace(*v) == "" {
			*v = f
		}
	}
	fill(&b.Character, fallback.Character)
	fill(&b.Setting, fallback.Setting)
	fill(&b.Lighting, fallback.Lighting)
	fill(&b.Camera, fallback.Camera)
	fill(&b.ColorPalette, fallback.ColorPalette)
	fill(&b.Music, fallback.Music)
	fill(&b.Voice, fallback.Voice)
	fill(&b.AspectRatio, fallback.AspectRatio)
	fill(&b.Quality, fallback.Quality)
	return b
}

type slotMood struct {
	lighting string
	palette  string
	music    string
}

var slotMoods = map[content.TimeSlot]slotMood{
	content.SlotMorning:   {"bright natural morning daylight", "fresh pastel tones", "upbeat acoustic track at 110 bpm"},
	content.SlotAfternoon: {"clear even afternoon sunlight", "vivid saturated colors", "energetic pop beat at 120 bpm"},
	content.SlotEvening:   {"warm golden hour light", "amber and soft orange tones", "relaxed lo-fi groove at 90 bpm"},
	content.SlotNight:     {"moody low-key lighting with soft practical lamps", "deep blues and neon accents", "slow ambient synth pad at 75 bpm"},
}

// DefaultBaseline is the deterministic baseline used when the model gives none.
func DefaultBaseline(idea string, ct content.ContentType, aspectRatio string, slot content.TimeSlot) Baseline {
	mood, ok := slotMoods[slot]
	if !ok {
		mood = slotMood{"soft diffused natural light", "balanced natural colors", "light modern background music at 100 bpm"}
	}
	b := Baseline{
		Character:    "a friendly presenter in their late twenties with short dark hair, wearing a plain navy t-shirt",
		Setting:      fmt.Sprintf("a clean modern space that fits the topic: %s", idea),
		Lighting:     mood.lighting,
		Camera:       "handheld vertical framing, medium close-up, smooth slow push-in",
		ColorPalette: mood.palette,
		Music:        mood.music,
		Voice:        "warm, confident, conversational voiceover with a neutral American accent",
		AspectRatio:  aspectRatio,
		Quality:      "photorealistic, 1080p, sharp focus",
	}
	if ct == content.TypeStory {
		b.Camera = "steady tripod framing, intimate close-up, minimal cuts"
		b.Voice = "calm, soft, personal voiceover with a neutral American accent"
	}
	return b
}

func (b Baseline) describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Character: %s. ", b.Character)
	fmt.Fprintf(&sb, "Setting: %s. ", b.Setting)
	fmt.Fprintf(&sb, "Lighting: %s. ", b.Lighting)
	fmt.Fprintf(&sb, "Camera: %s. ", b.Camera)
	fmt.Fprintf(&sb, "Color palette: %s. ", b.ColorPalette)
	fmt.Fprintf(&sb, "Music: %s. ", b.Music)
	fmt.Fprintf(&sb, "Voice: %s. ", b.Voice)
	fmt.Fprintf(&sb, "Aspect ratio %s, %s.", b.AspectRatio, b.Quality)
	return sb.String()
}
