package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"searchmark/internal/models"
	"searchmark/internal/prompts"
)

// GeminiTransport invokes models through the Google Gemini API with JSON
// output enforced via the response MIME type.
type GeminiTransport struct {
	client *genai.Client
}

func NewGeminiTransport(apiKey string) (*GeminiTransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key not provided")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	log.Info("Gemini transport initialized")
	return &GeminiTransport{client: client}, nil
}

func (t *GeminiTransport) Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error) {
	gm := t.client.GenerativeModel(model.ID)
	gm.ResponseMIMEType = "application/json"
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.System)},
	}

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		return "", models.TokenUsage{}, asTransportError(model, ctx, fmt.Errorf("gemini generation: %w", err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", models.TokenUsage{}, asTransportError(model, ctx, fmt.Errorf("no candidates returned"))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	var usage models.TokenUsage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	log.Debugf("gemini: %s answered with %d output tokens", model.ID, usage.OutputTokens)
	return b.String(), usage, nil
}

// Close releases the underlying gRPC connection.
func (t *GeminiTransport) Close() error {
	return t.client.Close()
}

var _ Invoker = (*GeminiTransport)(nil)
