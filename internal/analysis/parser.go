package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// aspectPayload is the JSON contract every aspect prompt pins the model to.
type aspectPayload struct {
	Score    int       `json:"score"`
	Findings []Finding `json:"findings"`
}

// payloadSchemaDoc validates the shape of an aspect payload before it is
// accepted. The allowed severity values depend on the aspect, which the
// schema cannot express; ValidateFindings checks them on the decoded result.
const payloadSchemaDoc = `{
	"type": "object",
	"required": ["score", "findings"],
	"properties": {
		"score": {"type": "integer"},
		"findings": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["severity", "issue", "suggestion"],
				"properties": {
					"severity": {"type": "string"},
					"issue": {"type": "string"},
					"line": {"type": "integer"},
					"suggestion": {"type": "string"}
				}
			}
		}
	}
}`

var jsonBlockRegex = regexp.MustCompile("```json\\s*\\n([\\s\\S]*?)\\n```")

var payloadSchema = mustCompileSchema(payloadSchemaDoc)

func mustCompileSchema(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("invalid payload schema: %v", err))
	}
	return schema
}

// parseAspectPayload extracts and validates the JSON payload from a model
// completion. It accepts a fenced ```json block or the first bare JSON
// object in the text; anything else is an error, which the dispatcher
// treats as that aspect failing.
func parseAspectPayload(aspect Aspect, text string) (*aspectPayload, error) {
	jsonText, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	result, err := payloadSchema.Validate(gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return nil, fmt.Errorf("payload validation failed: %w", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("payload rejected by schema: %s", strings.Join(reasons, "; "))
	}

	var payload aspectPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload JSON: %w", err)
	}

	if err := ValidateFindings(aspect, payload.Findings); err != nil {
		return nil, fmt.Errorf("payload rejected: %w", err)
	}

	payload.Score = clampScore(payload.Score)
	if payload.Findings == nil {
		payload.Findings = []Finding{}
	}
	return &payload, nil
}

// extractJSON finds the JSON document inside a completion. A fenced json
// block wins; otherwise the text is scanned for the first decodable object.
func extractJSON(text string) (string, error) {
	if matches := jsonBlockRegex.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1]), nil
	}

	if extracted, ok := extractFirstJSONObject(text); ok {
		return extracted, nil
	}

	return "", fmt.Errorf("no JSON content found in completion")
}

// extractFirstJSONObject scans text for the first JSON object (starting at
// '{'). It tolerates leading prose before the payload.
func extractFirstJSONObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}

	start := strings.Index(trimmed, "{")
	if start == -1 {
		return "", false
	}

	decoder := json.NewDecoder(strings.NewReader(trimmed[start:]))
	decoder.UseNumber()

	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return "", false
	}

	return strings.TrimSpace(string(raw)), true
}
