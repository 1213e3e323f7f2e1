package llm

import (
	"context"
	"fmt"
)

// Provider names a backend implementation.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Provider Provider
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
}

// OpenService creates the configured backend.
func OpenService(ctx context.Context, cfg ProviderConfig) (Service, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGemini(ctx, cfg.Gemini)
	case ProviderOpenAI:
		if cfg.OpenAI.Model == "" {
			return nil, fmt.Errorf("openai provider requires a model name")
		}
		return NewOpenAI(cfg.OpenAI), nil
	}
	return nil, fmt.Errorf("unknown AI provider %q (want gemini or openai)", cfg.Provider)
}
