package factory

import (
	"context"
	"fmt"

	"pdf-chat-be/pkg/llm"
	"pdf-chat-be/pkg/llm/anthropic"
	"pdf-chat-be/pkg/llm/gemini"
	"pdf-chat-be/pkg/llm/ollama"
	"pdf-chat-be/pkg/llm/openai"
)

type Settings struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "openai", "":
		return openai.NewProvider("openai", s.APIKey, s.BaseURL, s.Model), nil
	case "huggingface":
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = openai.HuggingFaceBaseURL
		}
		return openai.NewProvider("huggingface", s.APIKey, baseURL, s.Model), nil
	case "ollama":
		return ollama.NewOllamaProvider(s.BaseURL, s.Model), nil
	case "anthropic":
		return anthropic.NewProvider(s.APIKey, s.Model), nil
	case "gemini":
		return gemini.NewProvider(ctx, s.APIKey, s.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
