package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType is the category tag of a graph node
type NodeType string

const (
	NodeTypeRoot       NodeType = "root"
	NodeTypeCourse     NodeType = "course"
	NodeTypeModule     NodeType = "module"
	NodeTypeAssignment NodeType = "assignment"
	NodeTypeDocument   NodeType = "document"
)

// IsValid reports whether t is one of the known categories
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeRoot, NodeTypeCourse, NodeTypeModule, NodeTypeAssignment, NodeTypeDocument:
		return true
	}
	return false
}

// DocumentNodeVal is the size weight given to every document node
const DocumentNodeVal = 16

// Node is a vertex of the visualized graph.
//
// X, Y and Z are the live simulation coordinates reported by the renderer and
// are nil until the renderer has laid the node out. FX, FY and FZ pin the node.
type Node struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       NodeType `json:"type"`
	Color      string   `json:"color"`
	Val        float64  `json:"val"`
	Summary    string   `json:"summary,omitempty"`
	Filename   string   `json:"filename,omitempty"`
	UploadDate string   `json:"upload_date,omitempty"`

	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	Z  *float64 `json:"z,omitempty"`
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
	FZ *float64 `json:"fz,omitempty"`
}

// Position returns the node's current coordinates. Missing coordinates read as zero.
func (n Node) Position() Vec3 {
	return Vec3{X: deref(n.X), Y: deref(n.Y), Z: deref(n.Z)}
}

// WithPosition returns a copy of the node placed at p
func (n Node) WithPosition(p Vec3) Node {
	x, y, z := p.X, p.Y, p.Z
	n.X, n.Y, n.Z = &x, &y, &z
	return n
}

// DocumentNodeID builds the node id of a stored document
func DocumentNodeID(pdfID int64) string {
	return fmt.Sprintf("pdf_%d", pdfID)
}

// ParseDocumentNodeID extracts the document id from a node id built by
// DocumentNodeID.
func ParseDocumentNodeID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, "pdf_")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
