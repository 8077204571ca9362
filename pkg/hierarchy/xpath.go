package hierarchy

import (
	"strconv"

	"github.com/antchfx/xpath"
)

// Select evaluates an XPath expression against the tree and returns the
// matching nodes in document order. Element names are node tags, so
// "//android.widget.Button" matches by class, and every parsed attribute
// (resource-id, text, content-desc, class, package, clickable, enabled,
// bounds) is available as @name.
func Select(root *Node, expr string) ([]*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	var result []*Node
	iter := compiled.Select(newNavigator(root))
	for iter.MoveNext() {
		if n := iter.Current().(*navigator).node(); n != nil {
			result = append(result, n)
		}
	}
	return result, nil
}

type attribute struct {
	name, value string
}

func attributesOf(n *Node) []attribute {
	attrs := make([]attribute, 0, 8)
	add := func(name, value string) {
		if value != "" {
			attrs = append(attrs, attribute{name, value})
		}
	}
	add("class", n.Tag)
	add("resource-id", n.ResourceID)
	add("text", n.Text)
	add("content-desc", n.ContentDesc)
	add("package", n.Package)
	add("clickable", strconv.FormatBool(n.Clickable))
	add("enabled", strconv.FormatBool(n.Enabled))
	if n.HasBounds {
		add("bounds", n.Bounds.String())
	}
	return attrs
}

// frame is one step of the navigator's position: a node and its index among
// its parent's children.
type frame struct {
	node  *Node
	index int
}

// navigator implements xpath.NodeNavigator over a Node tree. Ancestors are
// tracked on the navigator's own stack since nodes have no parent links.
// An empty stack is the document node, whose only child is root.
type navigator struct {
	root  *Node
	stack []frame
	attrs []attribute
	attr  int // -1 unless positioned on an attribute
}

func newNavigator(root *Node) *navigator {
	return &navigator{root: root, attr: -1}
}

func (n *navigator) node() *Node {
	if len(n.stack) == 0 {
		return nil
	}
	return n.stack[len(n.stack)-1].node
}

// siblings returns the child list the current node belongs to.
func (n *navigator) siblings() []*Node {
	if len(n.stack) == 1 {
		return []*Node{n.root}
	}
	return n.stack[len(n.stack)-2].node.Children
}

func (n *navigator) NodeType() xpath.NodeType {
	switch {
	case n.attr >= 0:
		return xpath.AttributeNode
	case len(n.stack) == 0:
		return xpath.RootNode
	default:
		return xpath.ElementNode
	}
}

func (n *navigator) LocalName() string {
	if n.attr >= 0 {
		return n.attrs[n.attr].name
	}
	if cur := n.node(); cur != nil {
		return cur.Tag
	}
	return ""
}

func (n *navigator) Prefix() string { return "" }

func (n *navigator) Value() string {
	if n.attr >= 0 {
		return n.attrs[n.attr].value
	}
	if cur := n.node(); cur != nil {
		return cur.Text
	}
	return ""
}

func (n *navigator) Copy() xpath.NodeNavigator {
	cp := *n
	cp.stack = append([]frame(nil), n.stack...)
	return &cp
}

func (n *navigator) MoveToRoot() {
	n.stack = n.stack[:0]
	n.attrs = nil
	n.attr = -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		return true
	}
	if len(n.stack) == 0 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	n.attrs = nil
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	cur := n.node()
	if cur == nil {
		return false
	}
	if n.attr < 0 {
		n.attrs = attributesOf(cur)
	}
	if n.attr+1 >= len(n.attrs) {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 {
		return false
	}
	cur := n.node()
	if cur == nil {
		n.stack = append(n.stack, frame{node: n.root})
		return true
	}
	if len(cur.Children) == 0 {
		return false
	}
	n.stack = append(n.stack, frame{node: cur.Children[0]})
	n.attrs = nil
	return true
}

func (n *navigator) MoveToFirst() bool {
	return n.moveToSibling(0)
}

func (n *navigator) MoveToNext() bool {
	if len(n.stack) == 0 {
		return false
	}
	return n.moveToSibling(n.stack[len(n.stack)-1].index + 1)
}

func (n *navigator) MoveToPrevious() bool {
	if len(n.stack) == 0 {
		return false
	}
	return n.moveToSibling(n.stack[len(n.stack)-1].index - 1)
}

func (n *navigator) moveToSibling(index int) bool {
	if n.attr >= 0 || len(n.stack) == 0 {
		return false
	}
	siblings := n.siblings()
	if index < 0 || index >= len(siblings) {
		return false
	}
	top := &n.stack[len(n.stack)-1]
	top.node, top.index = siblings[index], index
	n.attrs = nil
	return true
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != n.root {
		return false
	}
	n.stack = append(n.stack[:0:0], o.stack...)
	n.attrs = o.attrs
	n.attr = o.attr
	return true
}
