package prompts

// Prompt IDs for the built-in prompts.
const (
	SecurityAspect    = "aspect.security"
	PerformanceAspect = "aspect.performance"
	QualityAspect     = "aspect.quality"
	Chat              = "chat"
)

// responseContract is appended to every aspect prompt. It pins the model to
// the JSON payload the dispatcher's parser expects; anything else is treated
// as a failed aspect.
const responseContract = `Respond ONLY with a JSON object in this exact shape:
{
  "score": <integer 0-100, overall rating for this aspect>,
  "findings": [
    {
      "severity": "<severity level>",
      "issue": "<short description of the problem>",
      "line": <line number in the submitted code, or omit if not tied to a line>,
      "suggestion": "<concrete fix>"
    }
  ]
}
Return an empty findings array if there is nothing to report. Do not add prose outside the JSON.`

const securityPrompt = `You are a security reviewer. Examine the submitted code for vulnerabilities:
injection (SQL, command, template), broken authentication or authorization,
secrets in code, unsafe deserialization, path traversal, SSRF, XSS, and
unvalidated input reaching a sink. Rate severity as one of: low, medium, high, critical.

` + responseContract

const performancePrompt = `You are a performance reviewer. Examine the submitted code for inefficiencies:
algorithmic complexity, N+1 query patterns, unbounded allocations, blocking
calls on hot paths, missing caching, and redundant work in loops.
Rate severity as one of: low, medium, high.

` + responseContract

const qualityPrompt = `You are a code quality reviewer. Examine the submitted code for maintainability
problems: unclear naming, dead code, missing error handling, duplicated logic,
overlong functions, and violations of the language's idioms.
Rate severity as one of: low, medium, high.

` + responseContract

const chatPrompt = `You are a helpful assistant for software developers. Answer questions clearly
and concisely. When the user shares code, explain rather than analyze; a
separate review pipeline handles structured analysis.`

func registerBuiltins(r *Registry) {
	r.Register(&Prompt{ID: SecurityAspect, Version: V1, Content: securityPrompt})
	r.Register(&Prompt{ID: PerformanceAspect, Version: V1, Content: performancePrompt})
	r.Register(&Prompt{ID: QualityAspect, Version: V1, Content: qualityPrompt})
	r.Register(&Prompt{ID: Chat, Version: V1, Content: chatPrompt})
}
