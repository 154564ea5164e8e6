// Package workflow runs a full analysis as an ordered pipeline:
// init → analyze → summarize → persist → notify. The ordering is the
// contract; a persist or notify failure never unwinds the steps that
// already succeeded.
package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/codelens-ai/codelens/internal/analysis"
	"github.com/codelens-ai/codelens/internal/session"
)

// Notifier receives a completed analysis after it has been persisted.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, result *analysis.AnalysisResult) error
}

// LogNotifier is the default Notifier; it only logs.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, sessionID string, result *analysis.AnalysisResult) error {
	log.Printf("📣 analysis complete for session %s: %s", sessionID, result.Summary)
	return nil
}

// RetryPolicy bounds retries of the notify step. Nothing else in the
// pipeline retries.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Multiplier float64
}

// DefaultNotifyRetry retries notification twice with doubling delay.
var DefaultNotifyRetry = RetryPolicy{MaxRetries: 2, Delay: 500 * time.Millisecond, Multiplier: 2.0}

// Config wires a Pipeline. The Dispatcher should be constructed without a
// write-through store: the pipeline's persist step is the single call site
// where a storage failure is deliberately discarded.
type Config struct {
	Dispatcher  *analysis.Dispatcher
	Store       *session.Store
	Notifier    Notifier // nil means LogNotifier
	NotifyRetry RetryPolicy
}

// Pipeline executes analyses with the ordering contract above.
type Pipeline struct {
	dispatcher  *analysis.Dispatcher
	store       *session.Store
	notifier    Notifier
	notifyRetry RetryPolicy
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	retry := cfg.NotifyRetry
	if retry.MaxRetries == 0 && retry.Delay == 0 {
		retry = DefaultNotifyRetry
	}
	if retry.Multiplier <= 0 {
		retry.Multiplier = 1
	}
	return &Pipeline{
		dispatcher:  cfg.Dispatcher,
		store:       cfg.Store,
		notifier:    notifier,
		notifyRetry: retry,
	}
}

// Run executes one analysis end to end. It fails only when init or analyze
// fails (invalid session id, invalid input, caller cancellation); persist
// and notify degrade to log lines.
func (p *Pipeline) Run(ctx context.Context, sessionID, code string, aspects []analysis.Aspect) (*analysis.AnalysisResult, error) {
	// init: make sure the session exists before any model call.
	if _, err := p.store.GetOrCreateSession(sessionID, ""); err != nil {
		return nil, fmt.Errorf("init step failed: %w", err)
	}

	// analyze: concurrent per-aspect calls, settle-all.
	result, err := p.dispatcher.Analyze(ctx, "", code, aspects)
	if err != nil {
		return nil, fmt.Errorf("analyze step failed: %w", err)
	}

	// summarize: the dispatcher already derived the templated summary;
	// this step exists so the ordering stays observable.
	log.Printf("📝 session %s: %s", sessionID, result.Summary)

	// persist: best-effort. The result is already complete; a storage
	// failure must not fail the run.
	if err := p.store.SaveAnalysis(sessionID, result); err != nil {
		log.Printf("⚠️  persist step failed for session %s (continuing): %v", sessionID, err)
	}

	// notify: bounded retries, then give up without unwinding.
	if err := p.notifyWithRetry(ctx, sessionID, result); err != nil {
		log.Printf("⚠️  notify step failed for session %s after retries: %v", sessionID, err)
	}

	return result, nil
}

func (p *Pipeline) notifyWithRetry(ctx context.Context, sessionID string, result *analysis.AnalysisResult) error {
	delay := p.notifyRetry.Delay
	var lastErr error

	for attempt := 0; attempt <= p.notifyRetry.MaxRetries; attempt++ {
		lastErr = p.notifier.Notify(ctx, sessionID, result)
		if lastErr == nil {
			return nil
		}
		if attempt == p.notifyRetry.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("cancelled during notify retry: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.notifyRetry.Multiplier)
	}
	return lastErr
}
