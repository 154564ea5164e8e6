// Package prompts holds the system prompts sent to the model, keyed by the
// analysis aspect (or chat) they serve. Prompts are versioned so a prompt
// change can ship alongside the old one and be rolled back without a code
// revert.
package prompts

import (
	"fmt"
	"sync"
)

// Version identifies a prompt revision.
type Version string

const V1 Version = "1.0.0"

// Prompt is one registered system prompt.
type Prompt struct {
	ID      string
	Version Version
	Content string
}

// Registry manages versioned prompts.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]map[Version]*Prompt
}

var defaultRegistry *Registry
var defaultRegistryOnce sync.Once

// DefaultRegistry returns the global registry with all built-in prompts
// registered.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{prompts: make(map[string]map[Version]*Prompt)}
}

// Register adds a prompt to the registry, replacing any existing entry with
// the same ID and version.
func (r *Registry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[Version]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// Get retrieves a specific version of a prompt.
func (r *Registry) Get(id string, version Version) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}
	p, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}
	return p, nil
}

// GetLatest retrieves the highest registered version of a prompt.
func (r *Registry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok || len(versions) == 0 {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest *Prompt
	for version, p := range versions {
		if latest == nil || version > latest.Version {
			latest = p
		}
	}
	return latest, nil
}
