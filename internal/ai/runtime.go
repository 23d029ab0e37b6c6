package ai

import "context"

// Runtime is implemented by every LLM backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the ai_provider setting.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	// ProviderNone disables enrichment.
	ProviderNone = "none"
)
