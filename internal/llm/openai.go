package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultLMStudioBaseURL = "http://localhost:1234/v1"
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
)

// OpenAIClient talks to OpenAI or any server exposing its chat API, such
// as LM Studio.
type OpenAIClient struct {
	client   openai.Client
	provider string
	model    string
	baseURL  string
}

// NewOpenAIClient creates a client for provider. LM Studio accepts any key;
// OpenAI requires one from config or OPENAI_API_KEY.
func NewOpenAIClient(provider, model, baseURL, apiKey string) (*OpenAIClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%s model is required", provider)
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	switch provider {
	case ProviderLMStudio:
		if baseURL == "" || baseURL == defaultOllamaBaseURL {
			baseURL = defaultLMStudioBaseURL
		}
		if apiKey == "" {
			apiKey = "lm-studio"
		}
	default:
		if baseURL == "" || baseURL == defaultOllamaBaseURL {
			baseURL = defaultOpenAIBaseURL
		}
		if apiKey == "" {
			return nil, errors.New("openai api key is required (llm.api_key or OPENAI_API_KEY)")
		}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		client:   client,
		provider: provider,
		model:    model,
		baseURL:  baseURL,
	}, nil
}

// Chat sends messages to the LLM and returns the response.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			params[i] = openai.SystemMessage(msg.Content)
		case "assistant":
			params[i] = openai.AssistantMessage(msg.Content)
		default:
			params[i] = openai.UserMessage(msg.Content)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: params,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatJSON sends messages and parses the response as JSON into the provided type.
func (c *OpenAIClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	content, err := c.Chat(ctx, messages)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), result); err != nil {
		return fmt.Errorf("parsing JSON response: %w (content: %s)", err, content)
	}
	return nil
}
