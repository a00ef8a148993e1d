package services

import (
	"context"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// Generate produces a completion for a system prompt and user message
	Generate(ctx context.Context, system string, user string) (string, error)
}
