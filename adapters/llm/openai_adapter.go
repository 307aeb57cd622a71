package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type openAILLMAdapter struct {
	client *openai.Client
	model  string
	log    logger.Logger
}

// NewOpenAILLMAdapter works against any OpenAI compatible endpoint (OpenAI, Ollama, vLLM).
func NewOpenAILLMAdapter(cfg config.Config, log logger.Logger) (service.LLMService, error) {
	if cfg.LLM.BaseURL == "" {
		return nil, fmt.Errorf("llm base url is not configured")
	}
	if cfg.LLM.Model == "" {
		return nil, fmt.Errorf("llm model is not configured")
	}

	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = cfg.LLM.BaseURL

	client := openai.NewClientWithConfig(config)

	log.Info("LLM adapter initialized", zap.String("base_url", cfg.LLM.BaseURL), zap.String("model", cfg.LLM.Model))
	return &openAILLMAdapter{client: client, model: cfg.LLM.Model, log: log}, nil
}

func (a *openAILLMAdapter) GenerateChatResponse(ctx context.Context, prompt string) (string, error) {
	return a.complete(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Stream: false,
	})
}

func (a *openAILLMAdapter) GenerateStructured(ctx context.Context, prompt string, schemaName string, schema json.Marshaler) (string, error) {
	return a.complete(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
}

func (a *openAILLMAdapter) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no chat choices")
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("llm refused: %s", choice.Message.Refusal)
	}
	a.log.Debug("LLM completion received",
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return choice.Message.Content, nil
}
