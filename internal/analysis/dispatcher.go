package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/codelens-ai/codelens/internal/gateway"
	"github.com/codelens-ai/codelens/internal/prompts"
)

// ErrInvalidInput indicates the caller gave the dispatcher nothing to work
// with: empty code or no aspects. It is the only error Analyze surfaces;
// model-layer failures degrade to sentinel findings instead.
var ErrInvalidInput = errors.New("invalid analysis input")

// DefaultCallTimeout bounds each per-aspect model call. The gateway itself
// carries no timeout, so the dispatcher applies one around every call.
const DefaultCallTimeout = 30 * time.Second

// aspectPromptIDs maps each aspect to its registered system prompt.
var aspectPromptIDs = map[Aspect]string{
	AspectSecurity:    prompts.SecurityAspect,
	AspectPerformance: prompts.PerformanceAspect,
	AspectQuality:     prompts.QualityAspect,
}

// Store is the write-through collaborator: a successful analysis is
// persisted under the caller's session id as a best-effort side effect.
type Store interface {
	SaveAnalysis(sessionID string, result *AnalysisResult) error
}

// Config wires a Dispatcher.
type Config struct {
	Completer   gateway.Completer
	Store       Store             // optional; nil disables write-through
	Registry    *prompts.Registry // nil means prompts.DefaultRegistry()
	CallTimeout time.Duration     // 0 means DefaultCallTimeout
}

// Dispatcher fans one code submission out to concurrent per-aspect model
// calls and merges the settled outcomes into an AnalysisResult.
type Dispatcher struct {
	completer   gateway.Completer
	store       Store
	registry    *prompts.Registry
	callTimeout time.Duration
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	registry := cfg.Registry
	if registry == nil {
		registry = prompts.DefaultRegistry()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Dispatcher{
		completer:   cfg.Completer,
		store:       cfg.Store,
		registry:    registry,
		callTimeout: timeout,
	}
}

// Analyze runs the requested aspects concurrently and waits for every one
// to settle before aggregating ("settle-all": a failed aspect never aborts
// its siblings). A failed aspect contributes a single sentinel finding.
//
// Analyze fails only on invalid input or caller cancellation. When
// sessionID is non-empty and a store is configured, the result is written
// through; a write-through failure is logged and swallowed because the
// analysis itself already succeeded.
func (d *Dispatcher) Analyze(ctx context.Context, sessionID, code string, aspects []Aspect) (*AnalysisResult, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code must not be empty", ErrInvalidInput)
	}
	if len(aspects) == 0 {
		return nil, fmt.Errorf("%w: at least one aspect is required", ErrInvalidInput)
	}
	for _, aspect := range aspects {
		if !aspect.Valid() {
			return nil, fmt.Errorf("%w: unknown aspect %q", ErrInvalidInput, aspect)
		}
	}
	aspects = dedupeAspects(aspects)

	reports := make([]aspectReport, len(aspects))
	var wg sync.WaitGroup
	for i, aspect := range aspects {
		wg.Add(1)
		go func(slot int, aspect Aspect) {
			defer wg.Done()
			reports[slot] = d.runAspect(ctx, aspect, code)
		}(i, aspect)
	}
	wg.Wait()

	// On caller cancellation the partial outcomes are discarded: nothing is
	// aggregated and nothing is persisted.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := mergeReports(reports)

	if d.store != nil && sessionID != "" {
		if err := d.store.SaveAnalysis(sessionID, result); err != nil {
			log.Printf("⚠️  analysis write-through failed for session %s: %v", sessionID, err)
		}
	}

	return result, nil
}

// runAspect performs one model call and parses its payload. Every failure
// mode (gateway error, timeout, unparsable or schema-invalid payload) is
// folded into the report's Err.
func (d *Dispatcher) runAspect(ctx context.Context, aspect Aspect, code string) aspectReport {
	report := aspectReport{Aspect: aspect}

	prompt, err := d.registry.GetLatest(aspectPromptIDs[aspect])
	if err != nil {
		report.Err = err
		return report
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	text, err := d.completer.Complete(callCtx, gateway.CompleteRequest{
		SystemPrompt: prompt.Content,
		UserPrompt:   "Analyze this code:\n\n```\n" + code + "\n```",
		Temperature:  gateway.AnalysisTemperature,
	})
	if err != nil {
		report.Err = err
		return report
	}

	payload, err := parseAspectPayload(aspect, text)
	if err != nil {
		report.Err = err
		return report
	}

	report.Score = payload.Score
	report.Findings = payload.Findings
	return report
}

// mergeReports joins settled per-aspect reports into one AnalysisResult.
// The overall score is the rounded mean across aspects that succeeded, or 0
// when none did; the summary is a fixed template so it never depends on
// model availability.
func mergeReports(reports []aspectReport) *AnalysisResult {
	result := &AnalysisResult{
		Security:    []Finding{},
		Performance: []Finding{},
		Quality:     []Finding{},
	}

	scoreSum := 0
	succeeded := 0
	failed := 0
	for _, report := range reports {
		findings := report.Findings
		if report.Err != nil {
			findings = []Finding{sentinelFinding(report.Aspect, report.Err)}
			failed++
		} else {
			scoreSum += report.Score
			succeeded++
		}

		switch report.Aspect {
		case AspectSecurity:
			result.Security = findings
		case AspectPerformance:
			result.Performance = findings
		case AspectQuality:
			result.Quality = findings
		}
	}

	if succeeded > 0 {
		result.OverallScore = clampScore(int(math.Round(float64(scoreSum) / float64(succeeded))))
	}

	result.Summary = fmt.Sprintf(
		"Analyzed %d aspect(s): %d issue(s) found, %d high or critical. Overall score: %d/100.",
		len(reports), result.TotalIssues(), result.CriticalIssues(), result.OverallScore,
	)
	if failed > 0 {
		result.Summary += fmt.Sprintf(" %d aspect(s) unavailable.", failed)
	}

	return result
}

// sentinelFinding stands in for a failed aspect so the finding list is never
// absent and the caller can see what went wrong. Gateway-layer failures get a
// retry suggestion; an unusable payload from a reachable model does not.
func sentinelFinding(aspect Aspect, err error) Finding {
	suggestion := "Re-run the analysis; the model returned an unusable response."
	if gateway.IsModelFailure(err) || errors.Is(err, context.DeadlineExceeded) {
		suggestion = "Retry the analysis once the model is reachable."
	}
	return Finding{
		Severity:   SeverityMedium,
		Issue:      fmt.Sprintf("%s analysis failed: %v", aspect, shortReason(err)),
		Suggestion: suggestion,
	}
}

// shortReason trims a failure to something presentable in a finding.
func shortReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "model call timed out"
	}
	if errors.Is(err, gateway.ErrModelUnavailable) {
		return "model binding not configured"
	}
	return err.Error()
}

func dedupeAspects(aspects []Aspect) []Aspect {
	seen := make(map[Aspect]bool, len(aspects))
	out := aspects[:0:0]
	for _, a := range aspects {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
