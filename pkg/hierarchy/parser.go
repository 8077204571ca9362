package hierarchy

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/devicelab-dev/element-locator/pkg/core"
)

// wrapperTag is the document element of a uiautomator dump. It is not a UI element.
const wrapperTag = "hierarchy"

// Parse parses Android UI hierarchy XML into a tree.
// Supports both formats:
// - UIAutomator dump: <node class="android.widget.Button" .../>
// - Class-named elements: <android.widget.FrameLayout .../>
//
// A dump with several top-level elements (one per window) is returned under a
// synthetic root tagged "hierarchy" that has no bounds.
func Parse(doc string) (*Node, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, core.ErrParse.WithMessage("empty hierarchy document")
	}

	b := &treeBuilder{decoder: xml.NewDecoder(strings.NewReader(doc))}
	roots, err := b.roots()
	if err != nil {
		return nil, core.ErrParse.WithCause(err)
	}

	switch len(roots) {
	case 0:
		return nil, core.ErrParse.WithMessage("invalid page source: no root element found")
	case 1:
		return roots[0], nil
	default:
		return &Node{Tag: wrapperTag, Children: roots}, nil
	}
}

// ParseBytes is Parse for a raw buffer.
func ParseBytes(doc []byte) (*Node, error) {
	return Parse(string(doc))
}

type treeBuilder struct {
	decoder *xml.Decoder
}

// roots reads top-level elements, descending through the hierarchy wrapper.
// Trailing garbage after a complete document is ignored, matching the output
// of `uiautomator dump /dev/tty`, which appends a status line.
func (b *treeBuilder) roots() ([]*Node, error) {
	var roots []*Node
	openWrappers := 0

	for {
		token, err := b.decoder.Token()
		if errors.Is(err, io.EOF) {
			if openWrappers > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return roots, nil
		}
		if err != nil {
			if len(roots) > 0 && openWrappers == 0 {
				return roots, nil
			}
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == wrapperTag {
				openWrappers++
				continue
			}
			node, err := b.element(t)
			if err != nil {
				return nil, err
			}
			roots = append(roots, node)
		case xml.EndElement:
			if t.Name.Local == wrapperTag {
				openWrappers--
			}
		}
	}
}

// element builds the node for start and consumes tokens up to its end tag.
func (b *treeBuilder) element(start xml.StartElement) (*Node, error) {
	node := newNode(start)

	for {
		token, err := b.decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			child, err := b.element(t)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		case xml.EndElement:
			return node, nil
		}
	}
}

func newNode(start xml.StartElement) *Node {
	node := &Node{Tag: start.Name.Local}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "class":
			if attr.Value != "" {
				node.Tag = attr.Value
			}
		case "resource-id":
			node.ResourceID = attr.Value
		case "text":
			node.Text = attr.Value
		case "content-desc":
			node.ContentDesc = attr.Value
		case "package":
			node.Package = attr.Value
		case "clickable":
			node.Clickable = attr.Value == "true"
		case "enabled":
			node.Enabled = attr.Value == "true"
		case "bounds":
			node.Bounds, node.HasBounds = ParseBounds(attr.Value)
		}
	}

	return node
}
