// Package agent is the orchestration seam between an inbound message and
// the analysis or chat path. It owns the routing decision (via the
// classifier) and the caller-side model selection policy; HTTP framing
// lives outside this package entirely.
package agent

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/codelens-ai/codelens/internal/analysis"
	"github.com/codelens-ai/codelens/internal/classifier"
	"github.com/codelens-ai/codelens/internal/gateway"
	"github.com/codelens-ai/codelens/internal/prompts"
	"github.com/codelens-ai/codelens/internal/workflow"
)

// FallbackReply is returned for general chat when the model layer fails.
// Raw gateway errors never reach the user on the chat path.
const FallbackReply = "I'm having trouble reaching the language model right now. Please try again in a moment."

// DefaultChatTimeout bounds a general chat completion.
const DefaultChatTimeout = 30 * time.Second

// Reply is the agent's answer to one message.
type Reply struct {
	SessionID string
	Text      string
	// Analysis is set when the message was routed to the analysis path.
	Analysis *analysis.AnalysisResult
}

// Config wires an Agent.
type Config struct {
	Bindings    gateway.Bindings
	Pipeline    *workflow.Pipeline
	Registry    *prompts.Registry // nil means prompts.DefaultRegistry()
	ChatTimeout time.Duration     // 0 means DefaultChatTimeout
}

// Agent routes messages: analysis requests go through the workflow
// pipeline, everything else is answered as chat.
type Agent struct {
	bindings    gateway.Bindings
	pipeline    *workflow.Pipeline
	registry    *prompts.Registry
	chatTimeout time.Duration
}

// New creates an Agent.
func New(cfg Config) *Agent {
	registry := cfg.Registry
	if registry == nil {
		registry = prompts.DefaultRegistry()
	}
	timeout := cfg.ChatTimeout
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &Agent{
		bindings:    cfg.Bindings,
		pipeline:    cfg.Pipeline,
		registry:    registry,
		chatTimeout: timeout,
	}
}

// HandleMessage classifies text and routes it. An empty sessionID gets a
// fresh id, returned in the Reply so the caller can continue the session.
func (a *Agent) HandleMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if classifier.IsAnalysisRequest(text) {
		return a.handleAnalysis(ctx, sessionID, text)
	}
	return a.handleChat(ctx, sessionID, text)
}

func (a *Agent) handleAnalysis(ctx context.Context, sessionID, text string) (*Reply, error) {
	code := classifier.ExtractCode(text)

	result, err := a.pipeline.Run(ctx, sessionID, code, analysis.AllAspects)
	if err != nil {
		return nil, err
	}

	return &Reply{
		SessionID: sessionID,
		Text:      result.Summary,
		Analysis:  result,
	}, nil
}

func (a *Agent) handleChat(ctx context.Context, sessionID, text string) (*Reply, error) {
	reply := &Reply{SessionID: sessionID}

	completer, err := a.bindings.Pick()
	if err != nil {
		log.Printf("⚠️  chat unavailable for session %s: %v", sessionID, err)
		reply.Text = FallbackReply
		return reply, nil
	}

	prompt, err := a.registry.GetLatest(prompts.Chat)
	if err != nil {
		log.Printf("⚠️  chat prompt missing: %v", err)
		reply.Text = FallbackReply
		return reply, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.chatTimeout)
	defer cancel()

	answer, err := completer.Complete(callCtx, gateway.CompleteRequest{
		SystemPrompt: prompt.Content,
		UserPrompt:   text,
		Temperature:  gateway.ChatTemperature,
	})
	if err != nil {
		log.Printf("⚠️  chat completion failed for session %s: %v", sessionID, err)
		reply.Text = FallbackReply
		return reply, nil
	}

	reply.Text = answer
	return reply, nil
}
