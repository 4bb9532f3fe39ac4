package registry

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc struct {
	Name string
	Fn   func(ctx context.Context, selection *domain.Element) (*Entries, error)
}

// Namespace implements Provider.
func (f ProviderFunc) Namespace() string { return f.Name }

// Entries implements Provider.
func (f ProviderFunc) Entries(ctx context.Context, selection *domain.Element) (*Entries, error) {
	return f.Fn(ctx, selection)
}

// Static returns a provider that always contributes the given actions in order.
func Static(namespace string, actions ...domain.ToolAction) Provider {
	return ProviderFunc{
		Name: namespace,
		Fn: func(context.Context, *domain.Element) (*Entries, error) {
			m := NewEntries()
			for _, a := range actions {
				m.Set(a.ID, a)
			}
			return m, nil
		},
	}
}
