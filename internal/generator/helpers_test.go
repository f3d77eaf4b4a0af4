package generator

import "github.com/arabadanismani/backend/internal/config"

func configFor(provider, openAIKey, geminiKey string) config.GeneratorConfig {
	return config.GeneratorConfig{
		Provider:    provider,
		OpenAIKey:   openAIKey,
		OpenAIModel: "gpt-4.1-mini",
		GeminiKey:   geminiKey,
		Temperature: 0.2,
	}
}
