// Package session owns per-identity analysis state: a bounded rolling
// history of analysis results, derived statistics, and time-based
// retention. The Store is the sole writer of both the in-memory map and the
// durable snapshot; callers submit results and read back derived views.
package session

import (
	"time"

	"github.com/codelens-ai/codelens/internal/analysis"
)

// HistoryCap bounds the retained history per session. Older entries are
// evicted FIFO; the lifetime counters keep counting past the cap.
const HistoryCap = 50

// Session is a durable per-identity record.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`

	// History holds the HistoryCap most recent results, oldest first.
	History []analysis.AnalysisResult `json:"history"`

	// TotalAnalyses counts every SaveAnalysis over the session's lifetime.
	// It never shrinks, even though History is capped.
	TotalAnalyses int `json:"totalAnalyses"`

	// ScoreTotal is the running sum of every saved overall score. Kept
	// separately from History so AverageScore stays a true lifetime mean
	// after old entries are evicted.
	ScoreTotal int `json:"scoreTotal"`

	// AverageScore is round(ScoreTotal / TotalAnalyses).
	AverageScore int `json:"averageScore"`
}

// Stats is the derived read view of one session. Issue counts are summed
// over the retained history window only, so they can disagree with the
// lifetime TotalAnalyses counter once eviction starts; that discrepancy is
// part of the contract.
type Stats struct {
	TotalAnalyses          int       `json:"totalAnalyses"`
	AverageScore           int       `json:"averageScore"`
	LastActivity           time.Time `json:"lastActivity"`
	CreatedAt              time.Time `json:"createdAt"`
	SecurityIssuesFound    int       `json:"securityIssuesFound"`
	PerformanceIssuesFound int       `json:"performanceIssuesFound"`
	QualityIssuesFound     int       `json:"qualityIssuesFound"`
}

// clone returns a deep-enough copy for handing outside the store: the
// history slice is copied so callers cannot grow or reorder the store's
// backing array. Finding slices inside results are shared but immutable by
// contract.
func (s *Session) clone() *Session {
	out := *s
	out.History = make([]analysis.AnalysisResult, len(s.History))
	copy(out.History, s.History)
	return &out
}
