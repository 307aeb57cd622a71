package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	structured    string
	structuredErr error
	chat          []string
	chatErr       error
	chatCalls     int
}

func (f *fakeLLM) GenerateStructured(ctx context.Context, prompt, name string, schema json.Marshaler) (string, error) {
	return f.structured, f.structuredErr
}

func (f *fakeLLM) GenerateChatResponse(ctx context.Context, prompt string) (string, error) {
	f.chatCalls++
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if f.chatCalls > len(f.chat) {
		return "", errors.New("no more responses")
	}
	return f.chat[f.chatCalls-1], nil
}

func scriptJSON(n int) string {
	segs := make([]string, n)
	for i := range segs {
		segs[i] = fmt.Sprintf(`{"action": "beat %d"}`, i+1)
	}
	return `{"baseline": {"character": "a chef in a white apron", "setting": "a sunny kitchen", "lighting": "soft window light",
		"camera": "slow dolly", "color_palette": "warm", "music": "jazz at 95 bpm", "voice": "friendly British accent",
		"aspect_ratio": "9:16", "quality": "photorealistic"}, "segments": [` + strings.Join(segs, ",") + `]}`
}

func composeRequest(n int) ScriptRequest {
	return ScriptRequest{ContentID: 1, Idea: "quick pasta", ContentType: content.TypeReel, AspectRatio: "9:16", SegmentCount: n}
}

func TestCompose_Structured(t *testing.T) {
	c := NewScriptComposer(&fakeLLM{structured: scriptJSON(3)}, logger.NewNop())

	s := c.Compose(context.Background(), composeRequest(3))

	assert.Equal(t, SourceStructured, s.Source)
	require.Len(t, s.Prompts, 3)
	assert.Equal(t, "a chef in a white apron", s.Baseline.Character)
	assert.Contains(t, s.Prompts[0], "Character: a chef in a white apron")
	for _, p := range s.Prompts[1:] {
		assert.Contains(t, p, "Maintain identical character: a chef in a white apron")
		assert.Contains(t, p, "Maintain identical music: jazz at 95 bpm")
		assert.Contains(t, p, "continuous and gapless")
	}
	assert.Contains(t, s.Prompts[2], "call to action")
	assert.NotContains(t, s.Prompts[1], "call to action")
}

func TestCompose_FreeTextWithRepair(t *testing.T) {
	raw := "```json\n" + strings.Replace(scriptJSON(2), "]}", ",]}", 1) + "\n```"
	llm := &fakeLLM{structuredErr: errors.New("schema unsupported"), chat: []string{raw}}

	s := NewScriptComposer(llm, logger.NewNop()).Compose(context.Background(), composeRequest(2))

	assert.Equal(t, SourceFreeText, s.Source)
	assert.Len(t, s.Prompts, 2)
	assert.Equal(t, 1, llm.chatCalls)
}

func TestCompose_FreeTextKeepsQuotedDialogue(t *testing.T) {
	raw := strings.Replace(scriptJSON(2), `"beat 1"`, `"She says “let's go” and smiles"`, 1)
	llm := &fakeLLM{structuredErr: errors.New("schema unsupported"), chat: []string{raw}}

	s := NewScriptComposer(llm, logger.NewNop()).Compose(context.Background(), composeRequest(2))

	assert.Equal(t, SourceFreeText, s.Source)
	assert.Equal(t, 1, llm.chatCalls)
	assert.Contains(t, s.Prompts[0], "She says “let's go” and smiles")
}

func TestCompose_FreeTextRepairRetry(t *testing.T) {
	llm := &fakeLLM{
		structuredErr: errors.New("schema unsupported"),
		chat:          []string{"I think the script should be fun!", scriptJSON(2)},
	}

	s := NewScriptComposer(llm, logger.NewNop()).Compose(context.Background(), composeRequest(2))

	assert.Equal(t, SourceFreeText, s.Source)
	assert.Equal(t, 2, llm.chatCalls)
}

func TestCompose_FallsBackToTemplate(t *testing.T) {
	llm := &fakeLLM{
		structured: scriptJSON(2),
		chat:       []string{"nope", "still nope"},
	}

	s := NewScriptComposer(llm, logger.NewNop()).Compose(context.Background(), composeRequest(4))

	assert.Equal(t, SourceTemplate, s.Source)
	require.Len(t, s.Prompts, 4)
	assert.Equal(t, 2, llm.chatCalls)
	assert.Contains(t, s.Prompts[3], "call to action")
}

func TestCompose_NoModel(t *testing.T) {
	s := NewScriptComposer(nil, logger.NewNop()).Compose(context.Background(), composeRequest(1))

	assert.Equal(t, SourceTemplate, s.Source)
	assert.Len(t, s.Prompts, 1)
}

func TestTemplateScript_NeverEmpty(t *testing.T) {
	for n := 1; n <= 6; n++ {
		s := TemplateScript(ScriptRequest{Idea: "", ContentType: content.TypeStory, AspectRatio: "16:9", SegmentCount: n, TimeSlot: content.SlotNight})
		require.Len(t, s.Prompts, n)
		for _, p := range s.Prompts {
			assert.NotEmpty(t, p)
			assert.Contains(t, p, "16:9")
		}
		assert.Contains(t, s.Baseline.Lighting, "low-key")
	}
}
