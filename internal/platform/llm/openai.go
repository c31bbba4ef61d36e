package llm

import (
	"context"
	"errors"
	"fmt"

	"intervue/internal/platform/config"

	"github.com/sashabaranov/go-openai"
)

// CompletionClient is the opaque text-completion collaborator used by the
// extraction pipeline. Implementations return the raw model output verbatim.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := config.AppConfig.OpenAIAPIKey
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  config.AppConfig.OpenAIModel,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
