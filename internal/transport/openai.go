package transport

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"searchmark/internal/models"
	"searchmark/internal/prompts"
)

// OpenAITransport invokes chat models through the OpenAI API with JSON
// response format enforced.
type OpenAITransport struct {
	client *openai.Client
}

// NewOpenAITransport creates the OpenAI transport. baseURL overrides the
// API endpoint for OpenAI-compatible gateways; empty means the default.
func NewOpenAITransport(apiKey, baseURL string) (*OpenAITransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	log.Info("OpenAI transport initialized")
	return &OpenAITransport{client: openai.NewClientWithConfig(cfg)}, nil
}

func (t *OpenAITransport) Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model.ID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", models.TokenUsage{}, asTransportError(model, ctx, fmt.Errorf("openai completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", models.TokenUsage{}, asTransportError(model, ctx, fmt.Errorf("no completion choices returned"))
	}

	usage := models.TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	log.Debugf("openai: %s answered with %d output tokens", model.ID, usage.OutputTokens)
	return resp.Choices[0].Message.Content, usage, nil
}

var _ Invoker = (*OpenAITransport)(nil)
