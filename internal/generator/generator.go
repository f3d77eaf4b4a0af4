// Package generator calls the upstream language model and returns the raw
// completion text.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/arabadanismani/backend/internal/config"
)

// SystemPrompt frames every request.
const SystemPrompt = "You are a car recommendation AI."

var ErrEmptyCompletion = errors.New("upstream returned no completion")

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.GeneratorConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.OpenAIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel,
			WithBaseURL(cfg.OpenAIBaseURL),
			WithTemperature(cfg.Temperature),
		), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.GeminiKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
