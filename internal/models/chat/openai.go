// Package chat implements the Chat client, an OpenAI-compatible chat
// completion wrapper.
package chat

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/types/interfaces"
	openai "github.com/sashabaranov/go-openai"
)

// Config describes one configured chat model.
type Config struct {
	BaseURL   string
	APIKey    string
	ModelName string
	ModelID   string
}

// OpenAIChat calls an OpenAI-compatible chat completions endpoint.
type OpenAIChat struct {
	client    *openai.Client
	modelName string
	modelID   string
}

func NewOpenAIChat(cfg Config) (*OpenAIChat, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("chat model name is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIChat{
		client:    openai.NewClientWithConfig(clientCfg),
		modelName: cfg.ModelName,
		modelID:   cfg.ModelID,
	}, nil
}

func (c *OpenAIChat) Chat(ctx context.Context, messages []interfaces.ChatMessage, opts interfaces.ChatOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    toOpenAIMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no chat completion choice returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIChat) ModelID() string { return c.modelID }

func toOpenAIMessages(messages []interfaces.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

var _ interfaces.Chat = (*OpenAIChat)(nil)
