package gateway

import (
	"context"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient is the primary low-latency completion backend, calling the
// Anthropic Messages API directly.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates the primary completion client.
func NewAnthropicClient(apiKey, modelName string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}
}

// Complete implements Completer against the Anthropic Messages API.
func (c *AnthropicClient) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	req.applyDefaults()

	temperature := req.Temperature
	msgReq := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.UserPrompt)},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	}

	if req.SystemPrompt != "" {
		msgReq.MultiSystem = []anthropic.MessageSystemPart{
			{Type: "text", Text: req.SystemPrompt},
		}
	}

	resp, err := c.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return "", wrapProviderError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}

	text := sb.String()
	if text == "" {
		return "", &ModelError{Provider: "anthropic", Err: errEmptyCompletion}
	}
	return text, nil
}
