package locator

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/element-locator/pkg/hierarchy"
)

// NoSelectorDescription is reported when an element has no usable attribute.
const NoSelectorDescription = "No suitable XPath found"

// ElementAttributes is the flattened attribute record of a matched element.
// Empty strings mean the attribute is absent.
type ElementAttributes struct {
	ResourceID  string
	Text        string
	ContentDesc string
	Class       string
	Bounds      string
}

// AttributesOf extracts the selector-relevant attributes of n.
func AttributesOf(n *hierarchy.Node) ElementAttributes {
	attrs := ElementAttributes{
		ResourceID:  n.ResourceID,
		Text:        n.Text,
		ContentDesc: n.ContentDesc,
		Class:       n.Tag,
	}
	if n.HasBounds {
		attrs.Bounds = n.Bounds.String()
	}
	return attrs
}

// SelectorCandidate is one way of re-finding an element.
type SelectorCandidate struct {
	Description string `json:"description"`
	Expression  string `json:"expression"`
}

// strategy is one row of the priority table.
type strategy struct {
	description string
	applies     func(a ElementAttributes) bool
	expression  func(a ElementAttributes) string
}

// strategies is ordered from most to least stable. Both GenerateStrategies and
// PickBest read this table, so the best pick is always the head of the list.
var strategies = []strategy{
	{
		description: "Resource ID + text match",
		applies:     func(a ElementAttributes) bool { return a.ResourceID != "" && a.Text != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//*[@resource-id=%s and @text=%s]`, literal(a.ResourceID), literal(a.Text))
		},
	},
	{
		description: "Resource ID match",
		applies:     func(a ElementAttributes) bool { return a.ResourceID != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//*[@resource-id=%s]`, literal(a.ResourceID))
		},
	},
	{
		description: "Resource ID + content description match",
		applies:     func(a ElementAttributes) bool { return a.ResourceID != "" && a.ContentDesc != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//*[@resource-id=%s and @content-desc=%s]`, literal(a.ResourceID), literal(a.ContentDesc))
		},
	},
	{
		description: "Element type + resource ID match",
		applies:     func(a ElementAttributes) bool { return a.Class != "" && a.ResourceID != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//%s[@resource-id=%s]`, a.Class, literal(a.ResourceID))
		},
	},
	{
		description: "Text match",
		applies:     func(a ElementAttributes) bool { return a.Text != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//*[@text=%s]`, literal(a.Text))
		},
	},
	{
		description: "Element type + text match",
		applies:     func(a ElementAttributes) bool { return a.Class != "" && a.Text != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//%s[@text=%s]`, a.Class, literal(a.Text))
		},
	},
	{
		description: "Content description match",
		applies:     func(a ElementAttributes) bool { return a.ContentDesc != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//*[@content-desc=%s]`, literal(a.ContentDesc))
		},
	},
	{
		description: "Element type + content description match",
		applies:     func(a ElementAttributes) bool { return a.Class != "" && a.ContentDesc != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//%s[@content-desc=%s]`, a.Class, literal(a.ContentDesc))
		},
	},
	{
		description: "Element type match",
		applies:     func(a ElementAttributes) bool { return a.Class != "" },
		expression: func(a ElementAttributes) string {
			return "//" + a.Class
		},
	},
	{
		description: "Bounds match (low confidence: depends on viewport and state)",
		applies:     func(a ElementAttributes) bool { return a.Bounds != "" },
		expression: func(a ElementAttributes) string {
			return fmt.Sprintf(`//*[@bounds=%s]`, literal(a.Bounds))
		},
	},
}

// GenerateStrategies returns every selector the attributes support, most
// stable first. Rows whose attributes are missing are skipped.
func GenerateStrategies(attrs ElementAttributes) []SelectorCandidate {
	var result []SelectorCandidate
	for _, s := range strategies {
		if s.applies(attrs) {
			result = append(result, s.candidate(attrs))
		}
	}
	return result
}

// PickBest returns the highest-priority selector for attrs.
func PickBest(attrs ElementAttributes) SelectorCandidate {
	for _, s := range strategies {
		if s.applies(attrs) {
			return s.candidate(attrs)
		}
	}
	return SelectorCandidate{Description: NoSelectorDescription}
}

func (s strategy) candidate(attrs ElementAttributes) SelectorCandidate {
	return SelectorCandidate{
		Description: s.description,
		Expression:  s.expression(attrs),
	}
}

// literal quotes v as an XPath string literal. Double quotes are used unless v
// contains one; values holding both quote kinds are built with concat().
func literal(v string) string {
	switch {
	case !strings.Contains(v, `"`):
		return `"` + v + `"`
	case !strings.Contains(v, "'"):
		return "'" + v + "'"
	}

	parts := strings.Split(v, `"`)
	args := make([]string, 0, 2*len(parts)-1)
	for i, part := range parts {
		if i > 0 {
			args = append(args, `'"'`)
		}
		if part != "" {
			args = append(args, `"`+part+`"`)
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}
