// Package locator turns a hierarchy dump and a tap coordinate into a reusable
// XPath selector for the element under the tap.
//
// All functions are pure and safe for concurrent use.
package locator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/devicelab-dev/element-locator/pkg/core"
	"github.com/devicelab-dev/element-locator/pkg/hierarchy"
)

// Element is the matched element as reported to callers.
type Element struct {
	ResourceID  string `json:"resourceId"`
	Text        string `json:"text"`
	ContentDesc string `json:"contentDesc"`
	Class       string `json:"class"`
	Bounds      string `json:"bounds"`
}

// RankedSelector is a candidate together with the number of elements it
// selects in the dump it was generated from. One means it is unique there.
type RankedSelector struct {
	SelectorCandidate
	Matches int `json:"matches"`
}

// Result is the outcome of a successful Locate.
type Result struct {
	BestXPath   string              `json:"bestXPath"`
	Description string              `json:"description"`
	Element     Element             `json:"element"`
	Strategies  []RankedSelector    `json:"strategies"`
	Path        []string            `json:"path"`
}

// Locate parses doc, finds the element at (x, y) and derives its selectors.
//
// Errors carry a core category: ErrCategoryInput for negative coordinates,
// ErrCategoryParse for an unusable document and ErrCategoryNotFound when no
// element contains the point.
func Locate(doc string, x, y int) (*Result, error) {
	if x < 0 || y < 0 {
		return nil, invalidInput(fmt.Sprintf("coordinates must be non-negative, got (%d, %d)", x, y))
	}

	root, err := hierarchy.Parse(doc)
	if err != nil {
		return nil, err
	}

	match, err := hierarchy.LocateAt(root, x, y)
	if err != nil {
		return nil, err
	}

	attrs := AttributesOf(match.Node)
	best := PickBest(attrs)

	strategies, err := rank(root, GenerateStrategies(attrs))
	if err != nil {
		return nil, err
	}

	path := make([]string, len(match.Path))
	for i, n := range match.Path {
		path[i] = n.Label()
	}

	return &Result{
		BestXPath:   best.Expression,
		Description: best.Description,
		Element: Element{
			ResourceID:  attrs.ResourceID,
			Text:        attrs.Text,
			ContentDesc: attrs.ContentDesc,
			Class:       attrs.Class,
			Bounds:      attrs.Bounds,
		},
		Strategies: strategies,
		Path:       path,
	}, nil
}

// rank counts the elements each candidate selects in root.
func rank(root *hierarchy.Node, candidates []SelectorCandidate) ([]RankedSelector, error) {
	ranked := make([]RankedSelector, len(candidates))
	for i, c := range candidates {
		nodes, err := hierarchy.Select(root, c.Expression)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", c.Expression, err)
		}
		ranked[i] = RankedSelector{SelectorCandidate: c, Matches: len(nodes)}
	}
	return ranked, nil
}

// ParseCoordinates validates textual x and y values as received by a transport.
// A value is either a bare integer or a JSON string holding one, and must be
// non-negative.
func ParseCoordinates(rawX, rawY string) (int, int, error) {
	x, err := parseCoordinate("x", rawX)
	if err != nil {
		return 0, 0, err
	}
	y, err := parseCoordinate("y", rawY)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseCoordinate(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return 0, invalidInput(fmt.Sprintf("%s is required", name))
	}
	if strings.HasPrefix(raw, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(raw), &unquoted); err != nil {
			return 0, invalidInput(fmt.Sprintf("%s must be an integer, got %s", name, raw))
		}
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" || raw[0] == '+' {
		return 0, invalidInput(fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidInput(fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	if v < 0 {
		return 0, invalidInput(fmt.Sprintf("%s must be non-negative, got %d", name, v))
	}
	return v, nil
}

func invalidInput(msg string) error {
	return core.ErrInvalidInput.WithMessage(msg)
}
