// Package hierarchy parses Android UI hierarchy dumps into a tree of nodes and
// finds the element under a screen coordinate.
package hierarchy

import "strings"

// Node is one UI element from a hierarchy dump.
//
// A node owns its children; there are no parent links. Use the Path returned
// by LocateAt when ancestors are needed.
type Node struct {
	Tag         string // class attribute, or the element name when class is absent
	ResourceID  string
	Text        string
	ContentDesc string
	Package     string
	Clickable   bool
	Enabled     bool
	Bounds      Bounds
	HasBounds   bool // false when the bounds attribute was missing or malformed
	Children    []*Node
}

// Label returns a short human-readable name for the node, used in paths.
func (n *Node) Label() string {
	var sb strings.Builder
	sb.WriteString(n.Tag)
	if n.ResourceID != "" {
		sb.WriteString("#")
		sb.WriteString(n.ResourceID)
	}
	return sb.String()
}

// FlatNode is a node paired with its depth below the root.
type FlatNode struct {
	Node  *Node
	Depth int
}

// Walk visits root and its descendants depth-first in document order,
// parents before children.
func Walk(root *Node, fn func(n *Node, depth int)) {
	if root == nil {
		return
	}
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
}

// Flatten returns every node of the tree in document order with its depth.
func Flatten(root *Node) []FlatNode {
	var result []FlatNode
	Walk(root, func(n *Node, depth int) {
		result = append(result, FlatNode{Node: n, Depth: depth})
	})
	return result
}
