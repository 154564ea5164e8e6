package gateway

import (
	"os"
)

// Bindings holds the configured completion backends. Primary is the
// low-latency default; Fallback is the gateway-routed secondary and is nil
// unless both an account id and a gateway id were configured. Choosing
// between them per call is the caller's policy.
type Bindings struct {
	Primary  Completer
	Fallback Completer
}

// Pick returns the primary binding, or the fallback when no primary is
// configured. Returns ErrModelUnavailable when neither exists.
func (b Bindings) Pick() (Completer, error) {
	if b.Primary != nil {
		return b.Primary, nil
	}
	if b.Fallback != nil {
		return b.Fallback, nil
	}
	return nil, ErrModelUnavailable
}

// NewBindingsFromEnv builds the configured backends from environment
// variables:
//
//	ANTHROPIC_API_KEY / ANTHROPIC_MODEL   — primary
//	OPENAI_API_KEY / OPENAI_MODEL         — secondary, routed through the AI
//	AI_GATEWAY_ACCOUNT_ID                   gateway only when both gateway
//	AI_GATEWAY_ID                           identifiers are present
//
// Missing bindings are not an error here: a Bindings with both slots nil is
// valid and every call through it fails with ErrModelUnavailable.
func NewBindingsFromEnv() Bindings {
	var b Bindings

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		modelName := os.Getenv("ANTHROPIC_MODEL")
		if modelName == "" {
			modelName = "claude-3-5-haiku-latest"
		}
		b.Primary = NewAnthropicClient(apiKey, modelName)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	accountID := os.Getenv("AI_GATEWAY_ACCOUNT_ID")
	gatewayID := os.Getenv("AI_GATEWAY_ID")
	if apiKey != "" && accountID != "" && gatewayID != "" {
		modelName := os.Getenv("OPENAI_MODEL")
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}
		b.Fallback = NewGatewayRoutedClient(apiKey, modelName, accountID, gatewayID)
	}

	return b
}
