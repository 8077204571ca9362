package cli

import (
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/element-locator/pkg/hierarchy"
)

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Print the view hierarchy of the connected device",
	Description: `Print out the view hierarchy of the connected device in JSON or CSV format.

Examples:
  element-locator hierarchy
  element-locator hierarchy --compact
  element-locator --device emulator-5554 hierarchy
  element-locator hierarchy --file window_dump.xml`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "Output in CSV format",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Hierarchy dump to read instead of the device (- for stdin)",
		},
	},
	Action: runHierarchy,
}

// nodeView is the JSON shape of one node.
type nodeView struct {
	Class       string     `json:"class"`
	ResourceID  string     `json:"resourceId,omitempty"`
	Text        string     `json:"text,omitempty"`
	ContentDesc string     `json:"contentDesc,omitempty"`
	Package     string     `json:"package,omitempty"`
	Bounds      string     `json:"bounds,omitempty"`
	Clickable   bool       `json:"clickable"`
	Enabled     bool       `json:"enabled"`
	Children    []nodeView `json:"children,omitempty"`
}

func toView(n *hierarchy.Node) nodeView {
	v := nodeView{
		Class:       n.Tag,
		ResourceID:  n.ResourceID,
		Text:        n.Text,
		ContentDesc: n.ContentDesc,
		Package:     n.Package,
		Clickable:   n.Clickable,
		Enabled:     n.Enabled,
	}
	if n.HasBounds {
		v.Bounds = n.Bounds.String()
	}
	for _, child := range n.Children {
		v.Children = append(v.Children, toView(child))
	}
	return v
}

func runHierarchy(c *cli.Context) error {
	doc, err := readHierarchy(c, configFrom(c))
	if err != nil {
		return err
	}

	root, err := hierarchy.Parse(doc)
	if err != nil {
		return err
	}

	if c.Bool("compact") {
		return writeCSV(c, root)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(toView(root))
}

func writeCSV(c *cli.Context, root *hierarchy.Node) error {
	w := csv.NewWriter(c.App.Writer)
	if err := w.Write([]string{"depth", "class", "resource-id", "text", "content-desc", "bounds"}); err != nil {
		return err
	}

	for _, fn := range hierarchy.Flatten(root) {
		bounds := ""
		if fn.Node.HasBounds {
			bounds = fn.Node.Bounds.String()
		}
		record := []string{
			strconv.Itoa(fn.Depth),
			fn.Node.Tag,
			fn.Node.ResourceID,
			fn.Node.Text,
			fn.Node.ContentDesc,
			bounds,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
