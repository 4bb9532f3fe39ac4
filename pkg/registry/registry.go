package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entries is an id -> action mapping that preserves insertion order.
// Ordering within a group is the order in which ids were first inserted.
type Entries = orderedmap.OrderedMap[string, domain.ToolAction]

// NewEntries returns an empty ordered mapping.
func NewEntries() *Entries {
	return orderedmap.New[string, domain.ToolAction]()
}

// Provider contributes palette actions.
// selection is the currently selected element, or nil.
type Provider interface {
	// Namespace identifies the provider; separators are keyed by it.
	Namespace() string
	Entries(ctx context.Context, selection *domain.Element) (*Entries, error)
}

// Registry holds the ordered list of providers for one editing session.
// It is append-only: providers are registered at session start and never removed.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends a provider. Later providers override earlier ones on the same id.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Entries queries every provider in registration order and folds their
// mappings into one. A provider error aborts the build.
func (r *Registry) Entries(ctx context.Context, selection *domain.Element) (*Entries, error) {
	r.mu.RLock()
	providers := make([]Provider, len(r.providers))
	copy(providers, r.providers)
	r.mu.RUnlock()

	merged := NewEntries()
	for _, p := range providers {
		contributed, err := p.Entries(ctx, selection)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrProviderFailed, p.Namespace(), err)
		}
		if contributed == nil {
			continue
		}
		for pair := contributed.Oldest(); pair != nil; pair = pair.Next() {
			action := pair.Value
			key := pair.Key
			if action.IsSeparator {
				key = p.Namespace() + ":" + key
				action.Capabilities = nil
			}
			action.ID = key
			merged.Set(key, action)
		}
	}
	return merged, nil
}

// Lookup resolves a single action from the merged mapping.
func (r *Registry) Lookup(ctx context.Context, selection *domain.Element, id string) (domain.ToolAction, error) {
	entries, err := r.Entries(ctx, selection)
	if err != nil {
		return domain.ToolAction{}, err
	}
	action, ok := entries.Get(id)
	if !ok {
		return domain.ToolAction{}, fmt.Errorf("%w: %s", domain.ErrUnknownAction, id)
	}
	return action, nil
}

// List flattens the mapping into a slice, preserving order.
func List(entries *Entries) []domain.ToolAction {
	if entries == nil {
		return nil
	}
	out := make([]domain.ToolAction, 0, entries.Len())
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// GroupCounts counts non-separator actions per group.
func GroupCounts(entries *Entries) map[string]int {
	counts := make(map[string]int)
	for _, a := range List(entries) {
		if a.IsSeparator {
			continue
		}
		counts[a.Group]++
	}
	return counts
}
