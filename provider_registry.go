package modelswitch

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderOllama is a local Ollama daemon (the default backend)
	ProviderOllama ProviderID = "ollama"

	// ProviderAnthropic is Anthropic's Claude API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderOpenRouter is the OpenRouter completions API
	ProviderOpenRouter ProviderID = "openrouter"

	// ProviderLorem is the offline lorem ipsum provider for testing and dry runs
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderAnthropic, ProviderOpenRouter, ProviderLorem:
		return true
	default:
		return false
	}
}

// ParseProviderID converts user input to a known ProviderID.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	if !id.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
	return id, nil
}

// Registry maps provider IDs to constructed providers.
// Safe for concurrent use; providers themselves are stateless.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderID]Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[ProviderID]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider under its own Name().
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under id.
func (r *Registry) Get(id ProviderID) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", ErrUnknownProvider, id)
	}
	return p, nil
}

// Client resolves a model identifier on a provider to something that can
// generate tokens for it.
func (r *Registry) Client(id ProviderID, model string) (ModelClient, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !p.SupportsModel(model) {
		return nil, &ModelError{
			Model:    model,
			Provider: id.String(),
			Reason:   "model not supported by provider",
			Err:      ErrInvalidModel,
		}
	}
	return p, nil
}

// IDs lists the registered providers in sorted order.
func (r *Registry) IDs() []ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
