package classifier

import "testing"

func TestIsAnalysisRequestCodeMarkers(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"fenced block", "please look at this\n```go\nx := 1\n```\nthanks", true},
		{"fenced block no language", "```\nsome code\n```", true},
		{"inline code span", "what does `os.Exit(1)` do here", true},
		{"keyword analyze", "Can you analyze my project setup?", true},
		{"keyword uppercase", "SECURITY concerns with this approach?", true},
		{"structural token function", "the function takes two arguments", true},
		{"structural token import", "how do I import a module", true},
		{"plain greeting", "hello there, how are you today?", false},
		{"plain question", "what is the weather like", false},
		{"empty string", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAnalysisRequest(tc.text); got != tc.want {
				t.Errorf("IsAnalysisRequest(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

// Prose containing a structural token like "class" classifies as a code
// request. That over-trigger is the intended bias, documented behavior
// rather than a bug.
func TestIsAnalysisRequestOverTriggersOnProse(t *testing.T) {
	if !IsAnalysisRequest("my yoga class starts at noon") {
		t.Error("expected prose containing 'class' to classify as an analysis request")
	}
}

func TestExtractCodeFencedBlock(t *testing.T) {
	text := "check this:\n```go\nfunc main() {}\n```\nplease"
	if got := ExtractCode(text); got != "func main() {}" {
		t.Errorf("ExtractCode = %q, want %q", got, "func main() {}")
	}
}

func TestExtractCodeUnfencedText(t *testing.T) {
	text := "  var x = 1  "
	if got := ExtractCode(text); got != "var x = 1" {
		t.Errorf("ExtractCode = %q, want %q", got, "var x = 1")
	}
}

func TestExtractCodeUnclosedFence(t *testing.T) {
	text := "```go\nfunc main()"
	if got := ExtractCode(text); got != text {
		// An unclosed fence falls back to the whole (trimmed) message.
		t.Errorf("ExtractCode = %q, want the original text", got)
	}
}
