package config

import (
	"os"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestLoadMissingConfigIsEmpty(t *testing.T) {
	m := newTestManager(t)

	if m.Exists() {
		t.Error("Exists should be false before any save")
	}
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("expected an empty config, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := newTestManager(t)

	want := &Config{
		AnthropicAPIKey:     "key-123",
		AnthropicModel:      "claude-3-5-haiku-latest",
		OpenAIAPIKey:        "key-456",
		GatewayAccountID:    "acct",
		GatewayID:           "gw",
		SessionMaxAgeHours:  48,
		CleanupIntervalMins: 5,
	}
	if err := m.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !m.Exists() {
		t.Error("Exists should be true after save")
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestSaveRestrictsPermissions(t *testing.T) {
	m := newTestManager(t)

	if err := m.Save(&Config{AnthropicAPIKey: "secret"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(m.GetConfigPath())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 600", perm)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	m := newTestManager(t)

	if err := m.Save(&Config{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := os.WriteFile(m.GetConfigPath(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := m.Load(); err == nil {
		t.Error("expected an error for corrupt config json")
	}
}
