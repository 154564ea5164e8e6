// Package classifier decides whether an inbound chat message is asking for
// code analysis. It is a pure predicate over the message text with no
// dependencies, so the router can call it on every message cheaply.
package classifier

import (
	"regexp"
	"strings"
)

// analysisKeywords are intent words that signal the user wants the code
// looked at. Matching is case-insensitive substring matching.
var analysisKeywords = []string{
	"analyze", "review", "check", "audit",
	"security", "performance", "quality",
	"vulnerability", "optimize", "improve",
	"bug", "issue",
}

// structuralTokens are language keywords that strongly suggest the message
// body contains source code even without markdown fences.
var structuralTokens = []string{
	"function", "class", "def", "const", "let", "var", "import", "export",
}

var (
	fencedBlockRegex = regexp.MustCompile("(?s)```.*```")
	inlineCodeRegex  = regexp.MustCompile("`[^`\n]+`")
)

// IsAnalysisRequest reports whether text should be routed to code analysis.
// It is deterministic and total: any input, including the empty string,
// produces an answer and never an error.
//
// The check is deliberately biased toward over-triggering: ordinary prose
// containing a word like "class" or "issue" classifies as an analysis
// request. Missing a real analysis request is considered worse than running
// an unnecessary one.
func IsAnalysisRequest(text string) bool {
	if text == "" {
		return false
	}

	if fencedBlockRegex.MatchString(text) {
		return true
	}
	if inlineCodeRegex.MatchString(text) {
		return true
	}

	lower := strings.ToLower(text)
	for _, kw := range analysisKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, tok := range structuralTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}

	return false
}

// ExtractCode returns the code portion of an analysis request. If the
// message contains a fenced block, the body of the first block is returned
// (fence language tag stripped); otherwise the whole message is treated as
// code.
func ExtractCode(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return strings.TrimSpace(text)
	}

	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(text)
	}
	block := rest[:end]

	// Drop a language tag on the opening fence line ("```go").
	if nl := strings.Index(block, "\n"); nl != -1 {
		firstLine := strings.TrimSpace(block[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, " \t{};()") {
			block = block[nl+1:]
		}
	}

	return strings.TrimSpace(block)
}
