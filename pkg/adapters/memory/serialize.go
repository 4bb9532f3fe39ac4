package memory

import (
	"encoding/xml"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/arbor/pkg/bpmn"
	"github.com/aretw0/arbor/pkg/domain"
)

const (
	processID       = "Process_1"
	collaborationID = "Collaboration_1"

	namespaceBioc = "http://bpmn.io/schema/bpmn/biocolor/1.0"
	namespaceSVG  = "http://www.w3.org/2000/svg"
)

// writer emits one element per line, indented when format is set.
type writer struct {
	b      strings.Builder
	format bool
}

func (w *writer) line(depth int, parts ...string) {
	if w.format {
		w.b.WriteString(strings.Repeat("  ", depth))
	}
	for _, p := range parts {
		w.b.WriteString(p)
	}
	if w.format {
		w.b.WriteByte('\n')
	}
}

// attr renders ` name="value"` with the value escaped.
func attr(name, value string) string {
	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(&b, []byte(value))
	b.WriteString(`"`)
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// xmlName maps "bpmn:StartEvent" to "startEvent".
func xmlName(t domain.ElementType) string {
	local := t.Local()
	r, n := utf8.DecodeRuneInString(local)
	return string(unicode.ToLower(r)) + local[n:]
}

func isColor(key string) bool {
	return key == propFill || key == propStroke
}

// modelAttrs renders the non-color properties in key order.
func modelAttrs(s domain.Shape) string {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		if !isColor(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(attr(k, s.Properties[k]))
	}
	return b.String()
}

// renderMarkup produces BPMN 2.0 XML with a single process. Participants are
// placed in a collaboration referencing that process.
func renderMarkup(shapes []domain.Shape, format bool) string {
	w := &writer{format: format}
	w.line(0, xml.Header[:len(xml.Header)-1])
	w.line(0, "<bpmn2:definitions",
		attr("xmlns:bpmn2", bpmn.NamespaceModel),
		attr("xmlns:bpmndi", bpmn.NamespaceDI),
		attr("xmlns:dc", bpmn.NamespaceDC),
		attr("xmlns:di", bpmn.NamespaceDD),
		attr("xmlns:bioc", namespaceBioc),
		attr("id", "sample-diagram"),
		attr("targetNamespace", "http://bpmn.io/schema/bpmn"), ">")

	var participants, nodes []domain.Shape
	for _, s := range shapes {
		if s.Type == domain.TypeParticipant {
			participants = append(participants, s)
		} else {
			nodes = append(nodes, s)
		}
	}

	plane := processID
	if len(participants) > 0 {
		plane = collaborationID
		w.line(1, "<bpmn2:collaboration", attr("id", collaborationID), ">")
		for _, p := range participants {
			w.line(2, "<bpmn2:participant", attr("id", p.ID), attr("processRef", processID), modelAttrs(p), "/>")
		}
		w.line(1, "</bpmn2:collaboration>")
	}

	if len(nodes) == 0 {
		w.line(1, "<bpmn2:process", attr("id", processID), attr("isExecutable", "false"), "/>")
	} else {
		w.line(1, "<bpmn2:process", attr("id", processID), attr("isExecutable", "false"), ">")
		for _, n := range nodes {
			w.line(2, "<bpmn2:", xmlName(n.Type), attr("id", n.ID), modelAttrs(n), "/>")
		}
		w.line(1, "</bpmn2:process>")
	}

	w.line(1, "<bpmndi:BPMNDiagram", attr("id", "BPMNDiagram_1"), ">")
	w.line(2, "<bpmndi:BPMNPlane", attr("id", "BPMNPlane_1"), attr("bpmnElement", plane), ">")
	for _, s := range shapes {
		extra := ""
		if s.Type == domain.TypeParticipant || s.IsExpanded {
			extra += attr("isExpanded", strconv.FormatBool(s.IsExpanded))
		}
		if v, ok := s.Properties[propFill]; ok {
			extra += attr("bioc:fill", v)
		}
		if v, ok := s.Properties[propStroke]; ok {
			extra += attr("bioc:stroke", v)
		}
		w.line(3, "<bpmndi:BPMNShape", attr("id", s.ID+"_di"), attr("bpmnElement", s.ID), extra, ">")
		w.line(4, "<dc:Bounds", attr("x", num(s.X)), attr("y", num(s.Y)),
			attr("width", num(s.Width)), attr("height", num(s.Height)), "/>")
		w.line(3, "</bpmndi:BPMNShape>")
	}
	w.line(2, "</bpmndi:BPMNPlane>")
	w.line(1, "</bpmndi:BPMNDiagram>")
	w.line(0, "</bpmn2:definitions>")
	return w.b.String()
}

// renderSVG draws every shape inside a viewBox fitted to the diagram bounds.
func renderSVG(shapes []domain.Shape, format bool) string {
	const margin = 6.0

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range shapes {
		minX = math.Min(minX, s.X)
		minY = math.Min(minY, s.Y)
		maxX = math.Max(maxX, s.X+s.Width)
		maxY = math.Max(maxY, s.Y+s.Height)
	}
	var x, y, width, height float64
	if len(shapes) > 0 {
		x, y = minX-margin, minY-margin
		width, height = maxX-minX+2*margin, maxY-minY+2*margin
	}

	w := &writer{format: format}
	w.line(0, xml.Header[:len(xml.Header)-1])
	w.line(0, "<svg", attr("xmlns", namespaceSVG),
		attr("width", num(width)), attr("height", num(height)),
		attr("viewBox", fmt.Sprintf("%s %s %s %s", num(x), num(y), num(width), num(height))), ">")
	for _, s := range shapes {
		w.line(1, "<g", attr("data-element-id", s.ID), ">")
		w.line(2, svgShape(s))
		w.line(1, "</g>")
	}
	w.line(0, "</svg>")
	return w.b.String()
}

func svgShape(s domain.Shape) string {
	fill, stroke := "white", "black"
	if v, ok := s.Properties[propFill]; ok {
		fill = v
	}
	if v, ok := s.Properties[propStroke]; ok {
		stroke = v
	}
	paint := attr("fill", fill) + attr("stroke", stroke)

	switch s.Type {
	case domain.TypeStartEvent, domain.TypeEndEvent, "bpmn:IntermediateThrowEvent":
		strokeWidth := "2"
		if s.Type == domain.TypeEndEvent {
			strokeWidth = "4"
		}
		return "<circle" + attr("cx", num(s.X+s.Width/2)) + attr("cy", num(s.Y+s.Height/2)) +
			attr("r", num(s.Width/2)) + paint + attr("stroke-width", strokeWidth) + "/>"
	case domain.TypeExclusiveGateway, "bpmn:ParallelGateway":
		cx, cy := s.X+s.Width/2, s.Y+s.Height/2
		points := fmt.Sprintf("%s,%s %s,%s %s,%s %s,%s",
			num(cx), num(s.Y), num(s.X+s.Width), num(cy),
			num(cx), num(s.Y+s.Height), num(s.X), num(cy))
		return "<polygon" + attr("points", points) + paint + attr("stroke-width", "2") + "/>"
	case domain.TypeParticipant:
		return "<rect" + attr("x", num(s.X)) + attr("y", num(s.Y)) +
			attr("width", num(s.Width)) + attr("height", num(s.Height)) + paint + attr("stroke-width", "2") + "/>"
	}
	return "<rect" + attr("x", num(s.X)) + attr("y", num(s.Y)) +
		attr("width", num(s.Width)) + attr("height", num(s.Height)) +
		attr("rx", "10") + attr("ry", "10") + paint + attr("stroke-width", "2") + "/>"
}
