package gateway

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// aiGatewayBaseURL is the routed alternate endpoint template for the
// secondary model. The account and gateway identifiers come from
// configuration; the resulting URL serves an OpenAI-compatible API.
const aiGatewayBaseURL = "https://gateway.ai.cloudflare.com/v1/%s/%s/openai"

// OpenAIClient is the secondary completion backend, reached through a
// gateway-routed OpenAI-compatible endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a completion client against an OpenAI-compatible
// API. baseURL may be empty to use the SDK default endpoint.
func NewOpenAIClient(apiKey, modelName, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}
}

// NewGatewayRoutedClient creates the secondary client routed through the AI
// gateway endpoint derived from an account id and a gateway id.
func NewGatewayRoutedClient(apiKey, modelName, accountID, gatewayID string) *OpenAIClient {
	baseURL := fmt.Sprintf(aiGatewayBaseURL, accountID, gatewayID)
	return NewOpenAIClient(apiKey, modelName, baseURL)
}

// Complete implements Completer against the chat completions API.
func (c *OpenAIClient) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	req.applyDefaults()

	resp, err := c.client.CreateChatCompletion(ctx, newChatRequest(c.model, req))
	if err != nil {
		return "", wrapProviderError("openai", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ModelError{Provider: "openai", Err: errEmptyCompletion}
	}
	return resp.Choices[0].Message.Content, nil
}

// newChatRequest maps a CompleteRequest onto the SDK request. The SDK takes
// the temperature by pointer; req is a by-value copy, so its field can be
// addressed directly.
func newChatRequest(model string, req CompleteRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: &req.Temperature,
	}
}
