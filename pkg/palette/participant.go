package palette

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/gesture"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// ParticipantNamespace is the namespace ParticipantProvider registers under.
const ParticipantNamespace = "collaboration"

// ParticipantProvider contributes a pool creation entry. The entry is
// suppressed while a participant is selected.
type ParticipantProvider struct {
	creator   *gesture.Creator
	translate ports.Translator
}

// NewParticipantProvider creates the provider.
func NewParticipantProvider(creator *gesture.Creator, translate ports.Translator) *ParticipantProvider {
	return &ParticipantProvider{creator: creator, translate: translate}
}

// Namespace implements registry.Provider.
func (p *ParticipantProvider) Namespace() string { return ParticipantNamespace }

// Entries implements registry.Provider.
func (p *ParticipantProvider) Entries(_ context.Context, selection *domain.Element) (*registry.Entries, error) {
	m := registry.NewEntries()
	if selection != nil && selection.Type == domain.TypeParticipant {
		return m, nil
	}

	m.Set("collaboration-separator", domain.Separator("collaboration-separator", GroupCollaboration))
	m.Set(ActionCreateParticipant, domain.ToolAction{
		ID:          ActionCreateParticipant,
		Group:       GroupCollaboration,
		Style:       "bpmn-icon-participant",
		Title:       p.translate.Translate(KeyParticipant, nil),
		ElementType: domain.TypeParticipant,
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureDragStart: p.creator.StartParticipant,
			domain.GestureClick:     p.creator.StartParticipant,
		},
	})
	return m, nil
}
