package capabilities

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry classifies model identifiers into families/subtypes using an
// ordered pattern table loaded from embedded YAML. Classification is a pure
// lookup: the table is immutable after NewRegistry returns, so methods are
// safe for concurrent use without locking.
type Registry struct {
	patterns []ModelCapabilities
}

// NewRegistry creates a new capability registry and loads the embedded
// pattern table.
func NewRegistry() (*Registry, error) {
	r := &Registry{}

	if err := r.loadProviderFile("bedrock"); err != nil {
		return nil, fmt.Errorf("failed to load bedrock capabilities: %w", err)
	}

	return r, nil
}

// loadProviderFile loads a provider's capability YAML file.
func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	for _, p := range providerCaps.Patterns {
		if p.Pattern == "" {
			return fmt.Errorf("%s: pattern row with empty pattern", filename)
		}
		if p.Family == "" || p.Subtype == "" {
			return fmt.Errorf("%s: pattern %q missing family or subtype", filename, p.Pattern)
		}
	}

	r.patterns = append(r.patterns, providerCaps.Patterns...)
	return nil
}

// Classify maps a model identifier to its capabilities. Total: unrecognized
// identifiers map to SubtypeUnknown instead of failing.
func (r *Registry) Classify(modelID string) ModelCapabilities {
	id := strings.ToLower(modelID)

	for _, p := range r.patterns {
		if strings.Contains(id, p.Pattern) {
			return p
		}
	}

	return ModelCapabilities{
		Pattern:     "",
		DisplayName: "Unknown model",
		Family:      FamilyCompletion,
		Subtype:     SubtypeUnknown,
		Streaming:   false,
		PromptStyle: PromptStyleHuman,
	}
}

// DefaultStreaming returns the default streaming preference for a model id.
// True iff the family supports incremental decoding.
func (r *Registry) DefaultStreaming(modelID string) bool {
	return r.Classify(modelID).Streaming
}

// List returns the full pattern table in classification order.
func (r *Registry) List() []ModelCapabilities {
	out := make([]ModelCapabilities, len(r.patterns))
	copy(out, r.patterns)
	return out
}
