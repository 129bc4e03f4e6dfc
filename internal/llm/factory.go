package llm

import (
	"fmt"
	"strings"

	"github.com/grindflow/grindflow/internal/config"
)

const (
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
)

// NewClient creates an LLM client based on provider configuration.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		return NewOllamaClient(cfg.Model, cfg.BaseURL)
	case ProviderLMStudio, "lm-studio":
		return NewOpenAIClient(ProviderLMStudio, cfg.Model, cfg.BaseURL, cfg.APIKey)
	case ProviderOpenAI:
		return NewOpenAIClient(ProviderOpenAI, cfg.Model, cfg.BaseURL, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
