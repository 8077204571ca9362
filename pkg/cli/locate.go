package cli

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/element-locator/pkg/locator"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

var locateCommand = &cli.Command{
	Name:  "locate",
	Usage: "Print a selector for the element at a screen coordinate",
	Description: `Find the element under (x, y) and print the most stable XPath for it.
Without --file the hierarchy is dumped from the device.

Examples:
  element-locator locate --x 540 --y 1200
  element-locator locate --file window_dump.xml --x 540 --y 1200 --all
  adb exec-out uiautomator dump /dev/tty | element-locator locate --file - --x 10 --y 10`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:     "x",
			Usage:    "X coordinate in device pixels",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "y",
			Usage:    "Y coordinate in device pixels",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Hierarchy dump to read instead of the device (- for stdin)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Print every candidate selector, most stable first, with how many elements each selects",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the full result as JSON",
		},
	},
	Action: runLocate,
}

func runLocate(c *cli.Context) error {
	cfg := configFrom(c)
	x, y := c.Int("x"), c.Int("y")

	doc, err := readHierarchy(c, cfg)
	if err != nil {
		logger.Error("Failed to read hierarchy: %v", err)
		return err
	}

	result, err := locator.Locate(doc, x, y)
	if err != nil {
		logger.Info("Locate (%d, %d) failed: %v", x, y, err)
		return err
	}
	logger.Info("Located %s at (%d, %d): %s", result.Element.Class, x, y, result.BestXPath)

	w := c.App.Writer
	switch {
	case c.Bool("json"):
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case c.Bool("all"):
		for i, s := range result.Strategies {
			fmt.Fprintf(w, "%2d. %s%s%s\n", i+1, color(colorBold), s.Expression, color(colorReset))
			fmt.Fprintf(w, "    %s%s%s · %s\n", color(colorGray), s.Description, color(colorReset), matchesLabel(s.Matches))
		}
	default:
		fmt.Fprintln(w, result.BestXPath)
		fmt.Fprintf(w, "%s%s · %s %s%s\n", color(colorGray), result.Description,
			result.Element.Class, result.Element.Bounds, color(colorReset))
	}
	return nil
}

func matchesLabel(n int) string {
	switch n {
	case 1:
		return color(colorGreen) + "unique" + color(colorReset)
	case 0:
		return color(colorRed) + "no match" + color(colorReset)
	default:
		return fmt.Sprintf("%s%d matches%s", color(colorYellow), n, color(colorReset))
	}
}
