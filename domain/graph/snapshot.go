package graph

import (
	"fmt"
	"strings"

	pkgerrors "coursegraph/pkg/errors"
)

// Snapshot is one complete (nodes, links) payload handed to the renderer
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Validate checks graph data reported by a renderer. Every node needs an id
// and a known type, and its coordinates must be finite.
func (s Snapshot) Validate() error {
	for i, n := range s.Nodes {
		if n.ID == "" {
			return pkgerrors.NewValidationError(fmt.Sprintf("node %d has no id", i))
		}
		if !n.Type.IsValid() {
			return pkgerrors.NewValidationError(fmt.Sprintf("node %s has unknown type %q", n.ID, n.Type))
		}
		if _, err := NewVec3(deref(n.X), deref(n.Y), deref(n.Z)); err != nil {
			return err
		}
	}
	return nil
}

// NodeByID returns the node with the given id
func (s Snapshot) NodeByID(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FindByName returns the first node, in snapshot order, whose name or id
// contains query case-insensitively. A nil filter accepts every node.
func (s Snapshot) FindByName(query string, filter func(Node) bool) (Node, bool) {
	q := strings.ToLower(query)
	for _, n := range s.Nodes {
		if filter != nil && !filter(n) {
			continue
		}
		if strings.Contains(strings.ToLower(n.Name), q) || strings.Contains(strings.ToLower(n.ID), q) {
			return n, true
		}
	}
	return Node{}, false
}

// NamesOf returns the names of the nodes of type t, in node order
func (s Snapshot) NamesOf(t NodeType) []string {
	var names []string
	for _, n := range s.Nodes {
		if n.Type == t {
			names = append(names, n.Name)
		}
	}
	return names
}

// Targets returns the nodes linked from source that pass filter, in node order
func (s Snapshot) Targets(source string, filter func(Node) bool) []Node {
	linked := make(map[string]struct{})
	for _, l := range s.Links {
		if l.Source == source {
			linked[l.Target] = struct{}{}
		}
	}

	out := make([]Node, 0, len(linked))
	for _, n := range s.Nodes {
		if _, ok := linked[n.ID]; !ok {
			continue
		}
		if filter == nil || filter(n) {
			out = append(out, n)
		}
	}
	return out
}

// PruneDangling drops every link whose source or target is not a node of the
// snapshot. It returns the cleaned snapshot and the number of links dropped.
func (s Snapshot) PruneDangling() (Snapshot, int) {
	ids := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		ids[n.ID] = struct{}{}
	}

	kept := make([]Link, 0, len(s.Links))
	for _, l := range s.Links {
		_, okSource := ids[l.Source]
		_, okTarget := ids[l.Target]
		if okSource && okTarget {
			kept = append(kept, l)
		}
	}
	return Snapshot{Nodes: s.Nodes, Links: kept}, len(s.Links) - len(kept)
}

// OfType returns a filter accepting nodes of type t
func OfType(t NodeType) func(Node) bool {
	return func(n Node) bool { return n.Type == t }
}

// Placeholder is the fixed graph served when the document store is unreachable,
// so the canvas always has something to render.
func Placeholder() Snapshot {
	return Snapshot{
		Nodes: []Node{
			{ID: "pdf_1", Name: "Sample PDF 1", Type: NodeTypeDocument, Color: "#ef4444", Val: DocumentNodeVal},
			{ID: "pdf_2", Name: "Sample PDF 2", Type: NodeTypeDocument, Color: "#3b82f6", Val: DocumentNodeVal},
			{ID: "pdf_3", Name: "Sample PDF 3", Type: NodeTypeDocument, Color: "#10b981", Val: DocumentNodeVal},
		},
		Links: []Link{
			{Source: "pdf_1", Target: "pdf_2"},
			{Source: "pdf_2", Target: "pdf_3"},
		},
	}
}
