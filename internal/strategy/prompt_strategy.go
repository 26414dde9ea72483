package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"

	apperrors "go-image-query/internal/errors"
)

// PromptStrategy supplies the canned question for one quick action.
type PromptStrategy interface {
	Name() string
	Prompt() string
}

type cannedPrompt struct {
	name   string
	prompt string
}

func (p cannedPrompt) Name() string   { return p.name }
func (p cannedPrompt) Prompt() string { return p.prompt }

// Registry holds the quick-action catalog. Lookup is case-insensitive.
// The registry is built once at startup and never mutated afterwards.
type Registry struct {
	strategies map[string]PromptStrategy
}

// NewRegistry creates a registry from the given strategies.
func NewRegistry(strategies ...PromptStrategy) *Registry {
	r := &Registry{strategies: make(map[string]PromptStrategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[strings.ToLower(s.Name())] = s
	}
	return r
}

// DefaultRegistry returns the built-in quick actions.
func DefaultRegistry() *Registry {
	return NewRegistry(
		cannedPrompt{"describe", "Describe this image in detail."},
		cannedPrompt{"extract-text", "Extract and transcribe all text visible in this image."},
		cannedPrompt{"identify-objects", "List the objects visible in this image."},
		cannedPrompt{"summarize", "Summarize what is happening in this image in one short paragraph."},
	)
}

// Resolve returns the strategy registered under name. An unknown name yields
// a validation error that suggests the closest known action.
func (r *Registry) Resolve(name string) (PromptStrategy, error) {
	s, ok := r.strategies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		msg := fmt.Sprintf("unknown quick action %q", name)
		if nearest := r.nearest(name); nearest != "" {
			msg = fmt.Sprintf("%s (did you mean %q?)", msg, nearest)
		}
		return nil, apperrors.NewValidationError(msg, nil)
	}
	return s, nil
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) nearest(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	best := ""
	bestDist := -1
	for _, candidate := range r.Names() {
		d := levenshtein.Distance(name, candidate)
		if bestDist == -1 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	// A suggestion further than half the name length is noise.
	if bestDist == -1 || bestDist > len(best)/2+1 {
		return ""
	}
	return best
}
