// Package config persists the user's configuration preferences.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the user's persistent configuration preferences. Values set
// here take precedence over environment variables, so choices made through
// setup survive a stale shell environment.
type Config struct {
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"` // Primary model key
	AnthropicModel  string `json:"anthropic_model,omitempty"`   // Primary model name

	OpenAIAPIKey     string `json:"openai_api_key,omitempty"`     // Secondary model key
	OpenAIModel      string `json:"openai_model,omitempty"`       // Secondary model name
	GatewayAccountID string `json:"gateway_account_id,omitempty"` // AI gateway account identifier
	GatewayID        string `json:"gateway_id,omitempty"`         // AI gateway identifier

	RequestTimeoutSecs  int `json:"request_timeout_secs,omitempty"`  // Per-model-call timeout
	SessionMaxAgeHours  int `json:"session_max_age_hours,omitempty"` // Retention: idle age before eviction
	CleanupIntervalMins int `json:"cleanup_interval_mins,omitempty"` // Retention: sweep interval
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}

	return &Manager{
		configDir: filepath.Join(configDir, "codelens"),
	}, nil
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600),
// since it can hold API keys.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := m.GetConfigPath()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
