// Package bpmn parses exchanged diagram markup into a generic element tree.
//
// Only the structure the session checks is modelled: the definitions root,
// its process containers and their direct children.
package bpmn

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// XML namespaces of the BPMN 2.0 exchange format.
const (
	NamespaceModel = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	NamespaceDI    = "http://www.omg.org/spec/BPMN/20100524/DI"
	NamespaceDC    = "http://www.omg.org/spec/DD/20100524/DC"
	NamespaceDD    = "http://www.omg.org/spec/DD/20100524/DI"
)

// Local names of the elements the validator inspects.
const (
	ElementDefinitions = "definitions"
	ElementProcess     = "process"
	ElementStartEvent  = "startEvent"
	ElementEndEvent    = "endEvent"
)

// Node is an element in the parsed tree.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// IsModel reports whether n is the BPMN model element with the given local name.
func (n *Node) IsModel(local string) bool {
	return n.Name.Local == local && isModelSpace(n.Name.Space)
}

// Child returns the first direct model child with the given local name.
func (n *Node) Child(local string) *Node {
	for _, c := range n.Children {
		if c.IsModel(local) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct model children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.IsModel(local) {
			out = append(out, c)
		}
	}
	return out
}

// Count counts direct model children per local name.
func (n *Node) Count() map[string]int {
	counts := make(map[string]int)
	for _, c := range n.Children {
		if isModelSpace(c.Name.Space) {
			counts[c.Name.Local]++
		}
	}
	return counts
}

// isModelSpace accepts the model namespace, no namespace, and the common
// undeclared prefixes encoding/xml leaves in Space.
func isModelSpace(space string) bool {
	switch space {
	case NamespaceModel, "", "bpmn", "bpmn2":
		return true
	}
	return false
}

// Parse reads markup into an element tree and returns the root element.
func Parse(markup string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("xml: no root element")
	}
	return root, nil
}
