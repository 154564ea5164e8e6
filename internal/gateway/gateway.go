// Package gateway wraps remote text-completion capabilities behind a small
// uniform contract. A Completer takes a system prompt and a user prompt and
// produces text; everything provider-specific (SDK types, endpoints, payload
// shapes) stays inside this package.
//
// The gateway never retries and never picks a backing model on its own:
// which Completer is used for a given call, and whether to wrap it in a
// timeout, is caller-side policy.
package gateway

import "context"

// Temperature conventions. Analysis calls run cold to keep findings
// reproducible; open-ended chat runs warmer.
const (
	AnalysisTemperature float32 = 0.1
	ChatTemperature     float32 = 0.7
)

// DefaultMaxTokens caps a completion when the caller does not set one.
const DefaultMaxTokens = 4096

// CompleteRequest carries one completion call.
type CompleteRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int     // 0 means DefaultMaxTokens
	Temperature  float32 // 0 means AnalysisTemperature
}

// Completer is the uniform completion contract. Implementations return the
// completion text, ErrModelUnavailable when no binding is configured, or a
// *ModelError when the remote call fails or yields no usable payload.
type Completer interface {
	Complete(ctx context.Context, req CompleteRequest) (string, error)
}

func (r *CompleteRequest) applyDefaults() {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature <= 0 {
		r.Temperature = AnalysisTemperature
	}
}
