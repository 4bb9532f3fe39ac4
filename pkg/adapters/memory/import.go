package memory

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/arbor/pkg/bpmn"
	"github.com/aretw0/arbor/pkg/domain"
)

// ImportMarkup implements ports.Importer. It replaces the diagram with the
// shapes found in markup and clears the history and the selection. The
// canvas scale is kept. No events are emitted.
func (e *Engine) ImportMarkup(markup string) error {
	root, err := bpmn.Parse(markup)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	if !root.IsModel(bpmn.ElementDefinitions) {
		return fmt.Errorf("%w: root is %s, not definitions", domain.ErrParse, root.Name.Local)
	}

	var shapes []*domain.Shape
	if collab := root.Child("collaboration"); collab != nil {
		for _, p := range collab.ChildrenNamed("participant") {
			shapes = append(shapes, shapeFromNode(p, "processRef"))
		}
	}
	if proc := root.Child(bpmn.ElementProcess); proc != nil {
		for _, n := range proc.Children {
			if !n.IsModel(n.Name.Local) || n.Name.Local == "sequenceFlow" || n.Attr("id") == "" {
				continue
			}
			shapes = append(shapes, shapeFromNode(n))
		}
	}
	applyDiagramInterchange(root, shapes)

	e.mu.Lock()
	e.shapes = shapes
	e.undo, e.redo = nil, nil
	e.selected = nil
	e.mu.Unlock()
	return nil
}

// shapeFromNode reads the element type and its model attributes. Attributes
// named in skip are structural and not kept as properties.
func shapeFromNode(n *bpmn.Node, skip ...string) *domain.Shape {
	s := &domain.Shape{ID: n.Attr("id"), Type: elementType(n.Name.Local)}
	if sz, ok := shapeSizes[s.Type]; ok {
		s.Width, s.Height = sz.w, sz.h
	}
attrs:
	for _, a := range n.Attrs {
		if a.Name.Space != "" || a.Name.Local == "id" {
			continue
		}
		for _, k := range skip {
			if a.Name.Local == k {
				continue attrs
			}
		}
		if s.Properties == nil {
			s.Properties = make(map[string]string)
		}
		s.Properties[a.Name.Local] = a.Value
	}
	return s
}

// applyDiagramInterchange copies bounds, expansion and colors from the
// BPMNShape entries onto the model shapes they reference.
func applyDiagramInterchange(root *bpmn.Node, shapes []*domain.Shape) {
	byID := make(map[string]*domain.Shape, len(shapes))
	for _, s := range shapes {
		byID[s.ID] = s
	}
	for _, diagram := range childrenLocal(root, "BPMNDiagram") {
		for _, plane := range childrenLocal(diagram, "BPMNPlane") {
			for _, di := range childrenLocal(plane, "BPMNShape") {
				s, ok := byID[di.Attr("bpmnElement")]
				if !ok {
					continue
				}
				if v := di.Attr("isExpanded"); v != "" {
					s.IsExpanded, _ = strconv.ParseBool(v)
				}
				if v := di.Attr(propFill); v != "" {
					setProp(s, propFill, v)
				}
				if v := di.Attr(propStroke); v != "" {
					setProp(s, propStroke, v)
				}
				for _, b := range childrenLocal(di, "Bounds") {
					s.X = parseNum(b.Attr("x"), s.X)
					s.Y = parseNum(b.Attr("y"), s.Y)
					s.Width = parseNum(b.Attr("width"), s.Width)
					s.Height = parseNum(b.Attr("height"), s.Height)
				}
			}
		}
	}
}

func childrenLocal(n *bpmn.Node, local string) []*bpmn.Node {
	var out []*bpmn.Node
	for _, c := range n.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

func setProp(s *domain.Shape, key, value string) {
	if s.Properties == nil {
		s.Properties = make(map[string]string)
	}
	s.Properties[key] = value
}

func parseNum(v string, fallback float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// elementType maps "startEvent" to "bpmn:StartEvent".
func elementType(local string) domain.ElementType {
	r, n := utf8.DecodeRuneInString(local)
	return domain.ElementType("bpmn:" + string(unicode.ToUpper(r)) + local[n:])
}
