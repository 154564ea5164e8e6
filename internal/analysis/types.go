// Package analysis runs multi-aspect code analysis against the model
// gateway and aggregates per-aspect outcomes into a single result.
package analysis

import (
	"fmt"
)

// Aspect is one analysis dimension.
type Aspect string

const (
	AspectSecurity    Aspect = "security"
	AspectPerformance Aspect = "performance"
	AspectQuality     Aspect = "quality"
)

// AllAspects lists every supported aspect in canonical order.
var AllAspects = []Aspect{AspectSecurity, AspectPerformance, AspectQuality}

// Valid reports whether a is a known aspect.
func (a Aspect) Valid() bool {
	switch a {
	case AspectSecurity, AspectPerformance, AspectQuality:
		return true
	}
	return false
}

// Severity rates one finding. Security findings additionally admit
// "critical"; performance and quality findings top out at "high".
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities returns the severity enumeration valid for this aspect.
func (a Aspect) Severities() []Severity {
	if a == AspectSecurity {
		return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	}
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh}
}

// ValidSeverity reports whether s is inside this aspect's enumeration.
func (a Aspect) ValidSeverity(s Severity) bool {
	for _, allowed := range a.Severities() {
		if s == allowed {
			return true
		}
	}
	return false
}

// Finding is one reported issue. Findings are immutable once produced.
type Finding struct {
	Severity   Severity `json:"severity"`
	Issue      string   `json:"issue"`
	Line       int      `json:"line,omitempty"`
	Suggestion string   `json:"suggestion"`
}

// AnalysisResult is one completed multi-aspect analysis. The per-aspect
// finding slices are always non-nil, even when an aspect failed or was not
// requested; OverallScore is always inside [0,100].
type AnalysisResult struct {
	Security     []Finding `json:"security"`
	Performance  []Finding `json:"performance"`
	Quality      []Finding `json:"quality"`
	OverallScore int       `json:"overallScore"`
	Summary      string    `json:"summary"`
}

// FindingsFor returns the finding slice for one aspect.
func (r *AnalysisResult) FindingsFor(a Aspect) []Finding {
	switch a {
	case AspectSecurity:
		return r.Security
	case AspectPerformance:
		return r.Performance
	case AspectQuality:
		return r.Quality
	}
	return nil
}

// TotalIssues is the sum of finding-list lengths across all aspects.
func (r *AnalysisResult) TotalIssues() int {
	return len(r.Security) + len(r.Performance) + len(r.Quality)
}

// CriticalIssues counts findings rated high or critical.
func (r *AnalysisResult) CriticalIssues() int {
	count := 0
	for _, findings := range [][]Finding{r.Security, r.Performance, r.Quality} {
		for _, f := range findings {
			if f.Severity == SeverityHigh || f.Severity == SeverityCritical {
				count++
			}
		}
	}
	return count
}

// aspectReport is one settled per-aspect outcome: either a payload the model
// returned, or the error that aspect failed with. Exactly one of the two is
// meaningful, discriminated by Err.
type aspectReport struct {
	Aspect   Aspect
	Score    int
	Findings []Finding
	Err      error
}

// ValidateFindings checks every finding's severity against the aspect's
// enumeration. A value outside the enumeration is a validation error.
func ValidateFindings(aspect Aspect, findings []Finding) error {
	for i, f := range findings {
		if !aspect.ValidSeverity(f.Severity) {
			return fmt.Errorf("finding %d: severity %q not valid for aspect %s", i, f.Severity, aspect)
		}
	}
	return nil
}

// clampScore forces a score into [0,100].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
