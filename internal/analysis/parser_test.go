package analysis

import (
	"strings"
	"testing"
)

func TestParseAspectPayloadFencedBlock(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"score\": 72, \"findings\": [{\"severity\": \"high\", \"issue\": \"SQL injection\", \"line\": 3, \"suggestion\": \"use parameterized queries\"}]}\n```\nDone."

	payload, err := parseAspectPayload(AspectSecurity, text)
	if err != nil {
		t.Fatalf("parseAspectPayload failed: %v", err)
	}
	if payload.Score != 72 {
		t.Errorf("Score = %d, want 72", payload.Score)
	}
	if len(payload.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(payload.Findings))
	}
	f := payload.Findings[0]
	if f.Severity != SeverityHigh || f.Line != 3 {
		t.Errorf("unexpected finding: %+v", f)
	}
}

func TestParseAspectPayloadBareObject(t *testing.T) {
	text := `The result is {"score": 90, "findings": []} as requested.`

	payload, err := parseAspectPayload(AspectQuality, text)
	if err != nil {
		t.Fatalf("parseAspectPayload failed: %v", err)
	}
	if payload.Score != 90 {
		t.Errorf("Score = %d, want 90", payload.Score)
	}
	if payload.Findings == nil || len(payload.Findings) != 0 {
		t.Errorf("expected empty non-nil findings, got %#v", payload.Findings)
	}
}

func TestParseAspectPayloadClampsScore(t *testing.T) {
	payload, err := parseAspectPayload(AspectPerformance, `{"score": 150, "findings": []}`)
	if err != nil {
		t.Fatalf("parseAspectPayload failed: %v", err)
	}
	if payload.Score != 100 {
		t.Errorf("Score = %d, want clamped 100", payload.Score)
	}
}

func TestParseAspectPayloadNoJSON(t *testing.T) {
	if _, err := parseAspectPayload(AspectSecurity, "I could not analyze this code."); err == nil {
		t.Error("expected error for completion without JSON")
	}
}

func TestParseAspectPayloadRejectsSeverityOutsideAspect(t *testing.T) {
	// "critical" is only valid for security findings.
	doc := `{"score": 50, "findings": [{"severity": "critical", "issue": "slow loop", "suggestion": "cache it"}]}`

	if _, err := parseAspectPayload(AspectPerformance, doc); err == nil {
		t.Error("expected rejection of critical severity for performance aspect")
	} else if !strings.Contains(err.Error(), "not valid") {
		t.Errorf("expected a severity validation error, got: %v", err)
	}

	if _, err := parseAspectPayload(AspectSecurity, doc); err != nil {
		t.Errorf("critical severity should be valid for security aspect: %v", err)
	}
}

func TestParseAspectPayloadSchemaRejectsMissingFields(t *testing.T) {
	if _, err := parseAspectPayload(AspectSecurity, `{"findings": []}`); err == nil {
		t.Error("expected schema rejection of payload without score")
	}
}

func TestValidateFindings(t *testing.T) {
	findings := []Finding{{Severity: SeverityCritical, Issue: "x", Suggestion: "y"}}

	if err := ValidateFindings(AspectSecurity, findings); err != nil {
		t.Errorf("critical should validate for security: %v", err)
	}
	if err := ValidateFindings(AspectQuality, findings); err == nil {
		t.Error("critical should not validate for quality")
	}
}
