package hierarchy

import (
	"fmt"

	"github.com/devicelab-dev/element-locator/pkg/core"
)

// Match is the result of a hit test.
type Match struct {
	Node *Node   // the matched element
	Path []*Node // root first, Node last
}

// LocateAt returns the element under (x, y).
//
// The tree is walked depth-first in document order and every node whose
// bounds contain the point replaces the current match. The winner is therefore
// the last containing node in document order: normally the deepest one, but a
// later sibling subtree beats an earlier one even when it matches shallower.
// Nodes without valid bounds are never matched; their children still are.
func LocateAt(root *Node, x, y int) (Match, error) {
	var best Match
	var stack []*Node

	var visit func(n *Node)
	visit = func(n *Node) {
		stack = append(stack, n)
		if n.HasBounds && n.Bounds.Contains(x, y) {
			best.Node = n
			best.Path = append([]*Node(nil), stack...)
		}
		for _, child := range n.Children {
			visit(child)
		}
		stack = stack[:len(stack)-1]
	}

	if root != nil {
		visit(root)
	}

	if best.Node == nil {
		return Match{}, core.ErrNotFound.
			WithMessage(fmt.Sprintf("no element found at (%d, %d)", x, y)).
			WithDetails(map[string]interface{}{"x": x, "y": y})
	}
	return best, nil
}
