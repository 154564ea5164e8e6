package gateway

import (
	"errors"
	"net/http"
	"testing"
)

func clearBindingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"AI_GATEWAY_ACCOUNT_ID", "AI_GATEWAY_ID",
	} {
		t.Setenv(key, "")
	}
}

func TestNewBindingsFromEnvEmpty(t *testing.T) {
	clearBindingEnv(t)

	b := NewBindingsFromEnv()
	if b.Primary != nil || b.Fallback != nil {
		t.Errorf("expected no bindings from empty env, got %+v", b)
	}
	if _, err := b.Pick(); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Pick on empty bindings: got %v, want ErrModelUnavailable", err)
	}
}

func TestNewBindingsFromEnvPrimaryOnly(t *testing.T) {
	clearBindingEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	b := NewBindingsFromEnv()
	if b.Primary == nil {
		t.Fatal("expected primary binding")
	}
	if b.Fallback != nil {
		t.Error("fallback requires gateway identifiers")
	}
}

func TestNewBindingsFromEnvFallbackNeedsBothGatewayIDs(t *testing.T) {
	clearBindingEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("AI_GATEWAY_ACCOUNT_ID", "acct-123")

	if b := NewBindingsFromEnv(); b.Fallback != nil {
		t.Error("fallback must not be configured without a gateway id")
	}

	t.Setenv("AI_GATEWAY_ID", "gw-456")
	b := NewBindingsFromEnv()
	if b.Fallback == nil {
		t.Fatal("expected fallback with both gateway identifiers set")
	}

	// Caller-side selection: with no primary, Pick falls through.
	picked, err := b.Pick()
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if picked != b.Fallback {
		t.Error("Pick should return the fallback when no primary exists")
	}
}

func TestPickPrefersPrimary(t *testing.T) {
	clearBindingEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "k1")
	t.Setenv("OPENAI_API_KEY", "k2")
	t.Setenv("AI_GATEWAY_ACCOUNT_ID", "acct")
	t.Setenv("AI_GATEWAY_ID", "gw")

	b := NewBindingsFromEnv()
	picked, err := b.Pick()
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if picked != b.Primary {
		t.Error("Pick should prefer the primary binding")
	}
}

func TestCompleteRequestDefaults(t *testing.T) {
	req := CompleteRequest{UserPrompt: "hi"}
	req.applyDefaults()

	if req.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, DefaultMaxTokens)
	}
	if req.Temperature != AnalysisTemperature {
		t.Errorf("Temperature = %v, want %v", req.Temperature, AnalysisTemperature)
	}

	req = CompleteRequest{MaxTokens: 128, Temperature: ChatTemperature}
	req.applyDefaults()
	if req.MaxTokens != 128 || req.Temperature != ChatTemperature {
		t.Errorf("explicit values must be preserved, got %+v", req)
	}
}

func TestNewChatRequestMapping(t *testing.T) {
	req := CompleteRequest{SystemPrompt: "be brief", UserPrompt: "hi", Temperature: ChatTemperature}
	req.applyDefaults()

	chatReq := newChatRequest("gpt-4o-mini", req)
	if chatReq.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", chatReq.Model)
	}
	if chatReq.Temperature == nil || *chatReq.Temperature != ChatTemperature {
		t.Errorf("Temperature = %v, want pointer to %v", chatReq.Temperature, ChatTemperature)
	}
	if chatReq.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", chatReq.MaxTokens, DefaultMaxTokens)
	}
	if len(chatReq.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(chatReq.Messages))
	}
	if chatReq.Messages[0].Content != "be brief" || chatReq.Messages[1].Content != "hi" {
		t.Errorf("message order wrong: %+v", chatReq.Messages)
	}

	// No system prompt yields a single user message.
	chatReq = newChatRequest("gpt-4o-mini", CompleteRequest{UserPrompt: "hi"})
	if len(chatReq.Messages) != 1 {
		t.Errorf("expected user message only, got %d", len(chatReq.Messages))
	}
}

func TestModelErrorWrapping(t *testing.T) {
	inner := errors.New("connection reset")
	err := wrapProviderError("anthropic", inner)

	var me *ModelError
	if !errors.As(err, &me) {
		t.Fatalf("got %T, want *ModelError", err)
	}
	if !errors.Is(err, inner) {
		t.Error("ModelError should unwrap to the provider error")
	}
	if !IsModelFailure(err) {
		t.Error("IsModelFailure should be true for *ModelError")
	}
	if !IsModelFailure(ErrModelUnavailable) {
		t.Error("IsModelFailure should be true for ErrModelUnavailable")
	}
	if IsModelFailure(errors.New("something else")) {
		t.Error("IsModelFailure should be false for unrelated errors")
	}
}

func TestExtractHTTPStatus(t *testing.T) {
	cases := []struct {
		msg  string
		want int
	}{
		{"request failed with status 429: rate limited", http.StatusTooManyRequests},
		{"upstream returned 503 service unavailable", http.StatusServiceUnavailable},
		{"401 unauthorized", http.StatusUnauthorized},
		{"plain network error", 0},
	}
	for _, tc := range cases {
		if got := extractHTTPStatus(errors.New(tc.msg)); got != tc.want {
			t.Errorf("extractHTTPStatus(%q) = %d, want %d", tc.msg, got, tc.want)
		}
	}
}
