package video

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khoahotran/reel-forge/adapters/metrics"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

type ScriptSource string

const (
	SourceStructured ScriptSource = "structured"
	SourceFreeText   ScriptSource = "free_text"
	SourceTemplate   ScriptSource = "template"
)

type ScriptRequest struct {
	ContentID    int64
	Idea         string
	ContentType  content.ContentType
	AspectRatio  string
	TimeSlot     content.TimeSlot
	SegmentCount int
}

type Script struct {
	Baseline Baseline
	Actions  []string
	Prompts  []string
	Source   ScriptSource
}

type scriptPayload struct {
	Baseline Baseline `json:"baseline"`
	Segments []struct {
		Action string `json:"action"`
	} `json:"segments"`
}

type ScriptComposer struct {
	llm    service.LLMService
	logger logger.Logger
}

func NewScriptComposer(llm service.LLMService, log logger.Logger) *ScriptComposer {
	return &ScriptComposer{llm: llm, logger: log}
}

// Compose always returns exactly req.SegmentCount prompts. Model failures
// degrade to the next tier and finally to the deterministic template.
func (c *ScriptComposer) Compose(ctx context.Context, req ScriptRequest) *Script {
	l := c.logger.With(zap.Int64("content_id", req.ContentID), zap.Int("segment_count", req.SegmentCount))
	fallback := DefaultBaseline(req.Idea, req.ContentType, req.AspectRatio, req.TimeSlot)

	if c.llm != nil {
		p, err := c.structured(ctx, req)
		if err == nil {
			return c.finish(req, fallback, p, SourceStructured)
		}
		l.Warn("Structured script generation failed, trying free text", zap.Error(err))

		p, err = c.freeText(ctx, req)
		if err == nil {
			return c.finish(req, fallback, p, SourceFreeText)
		}
		l.Warn("Free text script generation failed, using template", zap.Error(err))
	}

	script := TemplateScript(req)
	metrics.ScriptSourceTotal.WithLabelValues(string(SourceTemplate)).Inc()
	return script
}

func (c *ScriptComposer) finish(req ScriptRequest, fallback Baseline, p *scriptPayload, src ScriptSource) *Script {
	b := p.Baseline.Complete(fallback)
	b.AspectRatio = req.AspectRatio
	actions := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		actions[i] = strings.TrimSpace(s.Action)
	}
	metrics.ScriptSourceTotal.WithLabelValues(string(src)).Inc()
	return &Script{Baseline: b, Actions: actions, Prompts: BuildScript(b, actions), Source: src}
}

func (c *ScriptComposer) structured(ctx context.Context, req ScriptRequest) (*scriptPayload, error) {
	raw, err := c.llm.GenerateStructured(ctx, instructionPrompt(req, false), "extended_video_script", scriptSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptGeneration, err)
	}
	return decodeScript(raw, req.SegmentCount)
}

func (c *ScriptComposer) freeText(ctx context.Context, req ScriptRequest) (*scriptPayload, error) {
	raw, err := c.llm.GenerateChatResponse(ctx, instructionPrompt(req, true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptGeneration, err)
	}
	p, err := decodeLoose(raw, req.SegmentCount)
	if err == nil {
		return p, nil
	}

	fixed, rerr := c.llm.GenerateChatResponse(ctx, repairPrompt(raw, err, req.SegmentCount))
	if rerr != nil {
		return nil, fmt.Errorf("%w: repair request: %v", ErrScriptGeneration, rerr)
	}
	return decodeLoose(fixed, req.SegmentCount)
}

// decodeLoose only repairs text that does not already decode.
func decodeLoose(raw string, n int) (*scriptPayload, error) {
	if p, err := decodeScript(raw, n); err == nil {
		return p, nil
	}
	return decodeScript(repairJSON(raw), n)
}

func decodeScript(raw string, n int) (*scriptPayload, error) {
	var p scriptPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrScriptGeneration, err)
	}
	if len(p.Segments) != n {
		return nil, fmt.Errorf("%w: got %d segments, want %d", ErrScriptGeneration, len(p.Segments), n)
	}
	for i, s := range p.Segments {
		if strings.TrimSpace(s.Action) == "" {
			return nil, fmt.Errorf("%w: segment %d has no action", ErrScriptGeneration, i+1)
		}
	}
	return &p, nil
}

func toneFor(ct content.ContentType) string {
	if ct == content.TypeStory {
		return "intimate, reflective and personal, with few cuts and a slow emotional build"
	}
	return "fast-paced, punchy and high energy, with a strong hook in the first two seconds"
}

func instructionPrompt(req ScriptRequest, jsonOnly bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are writing a %d-segment script for a vertical short-form %s video. ", req.SegmentCount, req.ContentType)
	fmt.Fprintf(&sb, "Each segment is an 8 second AI-generated clip and all segments must play as one continuous shot.\n\n")
	fmt.Fprintf(&sb, "Idea: %s\n", req.Idea)
	fmt.Fprintf(&sb, "Tone: %s\n", toneFor(req.ContentType))
	if mood, ok := slotMoods[req.TimeSlot]; ok {
		fmt.Fprintf(&sb, "It will be posted in the %s, so favour %s and %s.\n", req.TimeSlot, mood.lighting, mood.palette)
	}
	fmt.Fprintf(&sb, "Aspect ratio: %s\n\n", req.AspectRatio)
	sb.WriteString("Define one baseline (character appearance, setting, lighting, camera style, color palette, music style and tempo, voice tone and accent, quality) that never changes. ")
	sb.WriteString("Then describe the on-screen action and spoken line for each segment in order. Segment 1 is the hook. ")
	if req.SegmentCount > 2 {
		sb.WriteString("The last segment closes with a clear statement or call to action. ")
	}
	sb.WriteString("Avoid violence, brand names, real people and medical or financial claims.")
	if jsonOnly {
		fmt.Fprintf(&sb, "\n\nRespond ONLY with JSON of the form {\"baseline\": {\"character\": \"\", \"setting\": \"\", \"lighting\": \"\", \"camera\": \"\", \"color_palette\": \"\", \"music\": \"\", \"voice\": \"\", \"aspect_ratio\": \"\", \"quality\": \"\"}, \"segments\": [{\"action\": \"\"}]} with exactly %d segments. No markdown. No explanation.", req.SegmentCount)
	}
	return sb.String()
}

func repairPrompt(raw string, cause error, n int) string {
	return fmt.Sprintf("The following text was supposed to be JSON with a \"baseline\" object and a \"segments\" array of exactly %d objects with an \"action\" string, but parsing failed (%v). Return only the corrected JSON.\n\n%s", n, cause, raw)
}

func scriptSchema() *jsonschema.Definition {
	str := jsonschema.Definition{Type: jsonschema.String}
	baselineProps := map[string]jsonschema.Definition{}
	baselineKeys := []string{"character", "setting", "lighting", "camera", "color_palette", "music", "voice", "aspect_ratio", "quality"}
	for _, k := range baselineKeys {
		baselineProps[k] = str
	}
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"baseline": {
				Type:                 jsonschema.Object,
				Properties:           baselineProps,
				Required:             baselineKeys,
				AdditionalProperties: false,
			},
			"segments": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type:                 jsonschema.Object,
					Properties:           map[string]jsonschema.Definition{"action": str},
					Required:             []string{"action"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"baseline", "segments"},
		AdditionalProperties: false,
	}
}
