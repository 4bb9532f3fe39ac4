package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/bpmn"
)

// Overlay contains session data to visualize on the graph.
type Overlay struct {
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart of the first process in a
// parsed diagram. It applies semantic styling:
// - Start event: ((Circle))
// - End event: (((Double circle)))
// - Gateway: {Rhombus}
// - Subprocess: [[Subroutine]]
// - Default: [Rectangle]
// Sequence flows become edges, labelled with their name when present.
func GenerateMermaid(root *bpmn.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	if root == nil || !root.IsModel(bpmn.ElementDefinitions) {
		return sb.String()
	}
	proc := root.Child(bpmn.ElementProcess)
	if proc == nil {
		return sb.String()
	}

	var flows []*bpmn.Node
	for _, node := range proc.Children {
		if !node.IsModel(node.Name.Local) {
			continue
		}
		if node.Name.Local == "sequenceFlow" {
			flows = append(flows, node)
			continue
		}
		id := node.Attr("id")
		if id == "" {
			continue
		}
		label := node.Attr("name")
		if label == "" {
			label = id
		}
		label = strings.ReplaceAll(label, "\"", "'")

		opener, closer := "[", "]"
		switch local := node.Name.Local; {
		case local == bpmn.ElementStartEvent:
			opener, closer = "((", "))"
		case local == bpmn.ElementEndEvent:
			opener, closer = "(((", ")))"
		case strings.HasSuffix(local, "Gateway"):
			opener, closer = "{", "}"
		case local == "subProcess":
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(id), opener, label, closer)
	}

	for _, f := range flows {
		from, to := f.Attr("sourceRef"), f.Attr("targetRef")
		if from == "" || to == "" {
			continue
		}
		arrow := "-->"
		if name := f.Attr("name"); name != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(name, "\"", "'"))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(from), arrow, sanitizeMermaidID(to))
	}

	if overlay != nil && overlay.Selected != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef selected fill:yellow,stroke:orange,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
