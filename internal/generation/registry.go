package generation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrEmptyRegistry = errors.New("model registry must contain at least one candidate")

// Candidate is one external generation model the orchestrator may try. Order
// in the registry is priority order: index 0 is tried first.
type Candidate struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"displayName"`
	Backend     string `yaml:"backend"`
}

// Registry holds the fixed, ordered fallback chain of candidates.
type Registry struct {
	candidates []Candidate
}

// NewRegistry builds a registry from an ordered candidate list.
func NewRegistry(candidates []Candidate) (*Registry, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyRegistry
	}
	return &Registry{candidates: candidates}, nil
}

// DefaultRegistry returns the built-in fallback chain, best quality first.
func DefaultRegistry() *Registry {
	return &Registry{candidates: []Candidate{
		{ID: "flux-pro", DisplayName: "FLUX.1-dev", Backend: BackendPollinations},
		{ID: "flux", DisplayName: "FLUX.1-schnell", Backend: BackendPollinations},
		{ID: "black-forest-labs/FLUX.1-dev", DisplayName: "FLUX.1-dev (HF)", Backend: BackendHuggingFace},
	}}
}

// LoadRegistry reads an ordered candidate list from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var parsed struct {
		Candidates []Candidate `yaml:"candidates"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	for i, cand := range parsed.Candidates {
		if cand.ID == "" || cand.Backend == "" {
			return nil, fmt.Errorf("registry candidate %d is missing id or backend", i)
		}
	}

	return NewRegistry(parsed.Candidates)
}

// Candidates returns the candidates in priority order. The slice must not be
// mutated by callers.
func (r *Registry) Candidates() []Candidate {
	return r.candidates
}
