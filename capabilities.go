package modelswitch

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/models.yaml
var modelsYAML []byte

// Capabilities are MODEL METADATA for listings, cost estimates and warnings.
// They never block a run: backends are the source of truth for what they serve.
// Callers can extend the embedded catalog with LoadCapabilitiesFromFile or
// RegisterProviderCapabilities.

// Catalog is the on-disk layout of a capability file.
type Catalog struct {
	Version     string                          `yaml:"version"`
	LastUpdated string                          `yaml:"last_updated"`
	Providers   map[string]ProviderCapabilities `yaml:"providers"`
}

// ProviderCapabilities lists the known models of one provider.
type ProviderCapabilities struct {
	Models map[string]ModelCapability `yaml:"models"`
}

// ModelCapability describes a single model.
type ModelCapability struct {
	DisplayName   string      `yaml:"display_name"`
	Tier          Role        `yaml:"tier"`
	Parameters    string      `yaml:"parameters"`
	ContextWindow int         `yaml:"context_window"`
	Pricing       PricingInfo `yaml:"pricing"`
}

// PricingInfo contains model pricing information (USD per million tokens)
type PricingInfo struct {
	InputPer1M  float64 `yaml:"input_per_1m"`
	OutputPer1M float64 `yaml:"output_per_1m"`
}

// IsFree reports whether the model has no per-token price (local models).
func (p PricingInfo) IsFree() bool {
	return p.InputPer1M == 0 && p.OutputPer1M == 0
}

// ModelInfo is a flattened catalog entry.
type ModelInfo struct {
	Provider ProviderID
	ID       string
	ModelCapability
}

// CapabilityRegistry manages provider capabilities
type CapabilityRegistry struct {
	providers map[ProviderID]*ProviderCapabilities
	mu        sync.RWMutex
}

var (
	globalRegistry     *CapabilityRegistry
	globalRegistryOnce sync.Once
	globalRegistryErr  error
)

// GetCapabilityRegistry returns the global capability registry (singleton)
// loaded from the embedded catalog.
func GetCapabilityRegistry() *CapabilityRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewCapabilityRegistry()
		globalRegistryErr = globalRegistry.load(modelsYAML)
	})
	return globalRegistry
}

// CapabilityLoadError returns the error, if any, from parsing the embedded catalog.
func CapabilityLoadError() error {
	GetCapabilityRegistry()
	return globalRegistryErr
}

// NewCapabilityRegistry creates an empty registry.
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{providers: make(map[ProviderID]*ProviderCapabilities)}
}

func (r *CapabilityRegistry) load(data []byte) error {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, caps := range catalog.Providers {
		id := ProviderID(name)
		existing, ok := r.providers[id]
		if !ok {
			c := caps
			if c.Models == nil {
				c.Models = make(map[string]ModelCapability)
			}
			r.providers[id] = &c
			continue
		}
		for model, mc := range caps.Models {
			existing.Models[model] = mc
		}
	}
	return nil
}

// GetModelCapability returns capabilities for a specific model
func (r *CapabilityRegistry) GetModelCapability(provider ProviderID, model string) (*ModelCapability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("no capabilities found for provider: %s", provider)
	}
	mc, ok := caps.Models[model]
	if !ok {
		return nil, fmt.Errorf("model %s not found for provider %s", model, provider)
	}
	return &mc, nil
}

// SupportsModel checks if the catalog knows a model
func (r *CapabilityRegistry) SupportsModel(provider ProviderID, model string) bool {
	_, err := r.GetModelCapability(provider, model)
	return err == nil
}

// Models lists catalog entries for a provider, or for every provider when
// provider is empty, sorted by provider then model ID.
func (r *CapabilityRegistry) Models(provider ProviderID) []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ModelInfo
	for id, caps := range r.providers {
		if provider != "" && id != provider {
			continue
		}
		for model, mc := range caps.Models {
			out = append(out, ModelInfo{Provider: id, ID: model, ModelCapability: mc})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EstimateCost returns the USD cost of the given token counts on a model.
// ok is false when the model is not in the catalog.
func (r *CapabilityRegistry) EstimateCost(provider ProviderID, model string, inputTokens, outputTokens int) (cost float64, ok bool) {
	mc, err := r.GetModelCapability(provider, model)
	if err != nil {
		return 0, false
	}
	cost = float64(inputTokens)*mc.Pricing.InputPer1M/1e6 + float64(outputTokens)*mc.Pricing.OutputPer1M/1e6
	return cost, true
}

// LoadCapabilitiesFromFile merges a YAML catalog file into the registry.
// The file format matches the embedded catalog.
func (r *CapabilityRegistry) LoadCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}
	return r.load(data)
}

// RegisterProviderCapabilities programmatically registers provider capabilities,
// replacing anything known for that provider.
func (r *CapabilityRegistry) RegisterProviderCapabilities(provider ProviderID, caps *ProviderCapabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider] = caps
}

// LoadCapabilitiesFromFile is a convenience function that calls the global registry's LoadCapabilitiesFromFile.
func LoadCapabilitiesFromFile(path string) error {
	return GetCapabilityRegistry().LoadCapabilitiesFromFile(path)
}

// RegisterProviderCapabilities is a convenience function that calls the global registry's RegisterProviderCapabilities.
func RegisterProviderCapabilities(provider ProviderID, caps *ProviderCapabilities) {
	GetCapabilityRegistry().RegisterProviderCapabilities(provider, caps)
}
