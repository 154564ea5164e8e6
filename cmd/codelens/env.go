package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/codelens-ai/codelens/internal/agent"
	"github.com/codelens-ai/codelens/internal/analysis"
	"github.com/codelens-ai/codelens/internal/config"
	"github.com/codelens-ai/codelens/internal/gateway"
	"github.com/codelens-ai/codelens/internal/session"
	"github.com/codelens-ai/codelens/internal/workflow"
)

// Retention defaults when neither config nor flags say otherwise.
const (
	defaultSessionMaxAge   = 24 * time.Hour
	defaultCleanupInterval = 10 * time.Minute
)

type runtimeEnv struct {
	Bindings   gateway.Bindings
	Store      *session.Store
	Dispatcher *analysis.Dispatcher
	Pipeline   *workflow.Pipeline
	Agent      *agent.Agent

	retention *session.RetentionWorker
}

func (r *runtimeEnv) Close() {
	if r.retention != nil {
		r.retention.Stop()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			log.Printf("⚠️  failed to close session store: %v", err)
		}
	}
}

// prepareRuntimeEnv loads configuration, builds the model bindings, opens
// the session store and wires the pipeline and agent. Config file values
// take precedence over environment variables.
func prepareRuntimeEnv(ctx context.Context) (*runtimeEnv, error) {
	userConfig := loadUserConfig()
	populateEnvFromConfig(userConfig)

	bindings := gateway.NewBindingsFromEnv()
	if bindings.Primary == nil && bindings.Fallback == nil {
		log.Println("⚠️  No model binding configured (set ANTHROPIC_API_KEY, or OPENAI_API_KEY with gateway ids); chat and analysis will degrade")
	}

	callTimeout := analysis.DefaultCallTimeout
	if userConfig.RequestTimeoutSecs > 0 {
		callTimeout = time.Duration(userConfig.RequestTimeoutSecs) * time.Second
	}

	store, err := openSessionStore(ctx)
	if err != nil {
		return nil, err
	}

	completer, pickErr := bindings.Pick()
	if pickErr != nil {
		completer = unavailable{}
	}

	// The pipeline owns persistence; the dispatcher is built without a
	// write-through store so storage failures are swallowed at exactly one
	// call site.
	dispatcher := analysis.New(analysis.Config{
		Completer:   completer,
		CallTimeout: callTimeout,
	})

	pipeline := workflow.New(workflow.Config{
		Dispatcher: dispatcher,
		Store:      store,
	})

	maxAge := defaultSessionMaxAge
	if userConfig.SessionMaxAgeHours > 0 {
		maxAge = time.Duration(userConfig.SessionMaxAgeHours) * time.Hour
	}
	interval := defaultCleanupInterval
	if userConfig.CleanupIntervalMins > 0 {
		interval = time.Duration(userConfig.CleanupIntervalMins) * time.Minute
	}
	retention := session.NewRetentionWorker(store, maxAge, interval)
	retention.Start()

	return &runtimeEnv{
		Bindings:   bindings,
		Store:      store,
		Dispatcher: dispatcher,
		Pipeline:   pipeline,
		Agent: agent.New(agent.Config{
			Bindings: bindings,
			Pipeline: pipeline,
		}),
		retention: retention,
	}, nil
}

// loadUserConfig reads the persistent config, falling back to an empty one
// so a missing or broken config never blocks startup.
func loadUserConfig() *config.Config {
	cfgManager, err := config.NewManager()
	if err != nil {
		log.Printf("⚠️  Failed to initialize config manager: %v", err)
		return &config.Config{}
	}

	userConfig, err := cfgManager.Load()
	if err != nil {
		log.Printf("⚠️  Failed to load user config: %v", err)
		return &config.Config{}
	}
	if cfgManager.Exists() {
		log.Printf("User config loaded from: %s", cfgManager.GetConfigPath())
	}
	return userConfig
}

// populateEnvFromConfig projects config file values onto the environment
// variables the gateway factory reads. Config wins over the existing
// environment so setup choices take precedence over stale shell state.
func populateEnvFromConfig(userConfig *config.Config) {
	if userConfig.AnthropicAPIKey != "" {
		os.Setenv("ANTHROPIC_API_KEY", userConfig.AnthropicAPIKey)
	}
	if userConfig.AnthropicModel != "" {
		os.Setenv("ANTHROPIC_MODEL", userConfig.AnthropicModel)
	}
	if userConfig.OpenAIAPIKey != "" {
		os.Setenv("OPENAI_API_KEY", userConfig.OpenAIAPIKey)
	}
	if userConfig.OpenAIModel != "" {
		os.Setenv("OPENAI_MODEL", userConfig.OpenAIModel)
	}
	if userConfig.GatewayAccountID != "" {
		os.Setenv("AI_GATEWAY_ACCOUNT_ID", userConfig.GatewayAccountID)
	}
	if userConfig.GatewayID != "" {
		os.Setenv("AI_GATEWAY_ID", userConfig.GatewayID)
	}
}

// openSessionStore opens the sqlite-backed store under the user config dir.
func openSessionStore(ctx context.Context) (*session.Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}

	dbPath := filepath.Join(configDir, "codelens", "sessions.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	snapshot, err := session.NewSQLiteSnapshot(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session snapshot: %w", err)
	}

	return session.Open(snapshot), nil
}

// unavailable satisfies gateway.Completer when no binding is configured, so
// the dispatcher degrades to sentinel findings instead of nil panics.
type unavailable struct{}

func (unavailable) Complete(context.Context, gateway.CompleteRequest) (string, error) {
	return "", gateway.ErrModelUnavailable
}
