package service

import (
	"context"
	"encoding/json"
)

type LLMService interface {
	GenerateChatResponse(ctx context.Context, prompt string) (string, error)
	// GenerateStructured asks the model for a response constrained to the given
	// JSON schema and returns the raw JSON text.
	GenerateStructured(ctx context.Context, prompt string, schemaName string, schema json.Marshaler) (string, error)
}
