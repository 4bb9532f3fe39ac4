package palette

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/gesture"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// Palette groups.
const (
	GroupTools         = "tools"
	GroupEvent         = "event"
	GroupGateway       = "gateway"
	GroupActivity      = "activity"
	GroupCollaboration = "collaboration"
)

// Action ids contributed by the in-repo providers.
const (
	ActionHandTool          = "hand-tool"
	ActionLassoTool         = "lasso-tool"
	ActionGlobalConnect     = "global-connect-tool"
	ActionToolSeparator     = "tool-separator"
	ActionCreateStart       = "create.start-event"
	ActionCreateEnd         = "create.end-event"
	ActionCreateExclusive   = "create.exclusive-gateway"
	ActionCreateUserTask    = "create.user-task"
	ActionCreateParticipant = "create.participant"
)

// Translation keys used for titles.
const (
	KeyHandTool      = "Hand tool"
	KeyLassoTool     = "Lasso tool"
	KeyGlobalConnect = "Connect tool"
	KeyStartEvent    = "Start event"
	KeyEndEvent      = "End event"
	KeyGateway       = "Gateway"
	KeyUserTask      = "User task"
	KeyParticipant   = "Participant"
	KeyCreateType    = "Create {type}"
)

// DefaultNamespace is the namespace DefaultProvider registers under.
const DefaultNamespace = "default"

// DefaultProvider contributes the standard BPMN palette.
type DefaultProvider struct {
	tools     ports.Tools
	creator   *gesture.Creator
	translate ports.Translator
}

// NewDefaultProvider wires the engine collaborators the palette needs.
func NewDefaultProvider(tools ports.Tools, creator *gesture.Creator, translate ports.Translator) *DefaultProvider {
	return &DefaultProvider{tools: tools, creator: creator, translate: translate}
}

// Namespace implements registry.Provider.
func (p *DefaultProvider) Namespace() string { return DefaultNamespace }

// Entries implements registry.Provider. The default palette does not depend
// on the selection.
func (p *DefaultProvider) Entries(_ context.Context, _ *domain.Element) (*registry.Entries, error) {
	t := p.translate.Translate
	m := registry.NewEntries()

	m.Set(ActionHandTool, domain.ToolAction{
		ID:    ActionHandTool,
		Group: GroupTools,
		Style: "bpmn-icon-hand-tool",
		Title: t(KeyHandTool, nil),
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick: func(_ context.Context, g domain.Gesture) error {
				return p.tools.ActivateHand(g)
			},
		},
	})
	m.Set(ActionLassoTool, domain.ToolAction{
		ID:    ActionLassoTool,
		Group: GroupTools,
		Style: "bpmn-icon-lasso-tool",
		Title: t(KeyLassoTool, nil),
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick: func(_ context.Context, g domain.Gesture) error {
				return p.tools.ActivateLasso(g)
			},
		},
	})
	m.Set(ActionGlobalConnect, domain.ToolAction{
		ID:    ActionGlobalConnect,
		Group: GroupTools,
		Style: "bpmn-icon-connection-multi",
		Title: t(KeyGlobalConnect, nil),
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick: func(_ context.Context, g domain.Gesture) error {
				return p.tools.ToggleConnect(g)
			},
		},
	})
	m.Set(ActionToolSeparator, domain.Separator(ActionToolSeparator, GroupTools))

	m.Set(ActionCreateStart, p.createAction(ActionCreateStart, domain.TypeStartEvent, GroupEvent,
		"bpmn-icon-start-event-none", t(KeyStartEvent, nil), domain.CreateOptions{}))
	m.Set(ActionCreateEnd, p.createAction(ActionCreateEnd, domain.TypeEndEvent, GroupEvent,
		"bpmn-icon-end-event-none", t(KeyEndEvent, nil), domain.CreateOptions{}))
	m.Set(ActionCreateExclusive, p.createAction(ActionCreateExclusive, domain.TypeExclusiveGateway, GroupGateway,
		"bpmn-icon-gateway-xor", t(KeyGateway, nil), domain.CreateOptions{}))
	m.Set(ActionCreateUserTask, p.createAction(ActionCreateUserTask, domain.TypeUserTask, GroupActivity,
		"bpmn-icon-user-task", t(KeyUserTask, nil), domain.CreateOptions{}))

	return m, nil
}

// createAction builds a click- and drag-capable creation entry.
// An empty title falls back to "Create {type}".
func (p *DefaultProvider) createAction(id string, typ domain.ElementType, group, style, title string, opts domain.CreateOptions) domain.ToolAction {
	if title == "" {
		title = p.translate.Translate(KeyCreateType, map[string]string{"type": typ.Local()})
	}
	h := p.creator.Handler(typ, opts)
	return domain.ToolAction{
		ID:          id,
		Group:       group,
		Style:       style,
		Title:       title,
		ElementType: typ,
		Options:     opts,
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureDragStart: h,
			domain.GestureClick:     h,
		},
	}
}
