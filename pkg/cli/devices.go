package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

var devicesCommand = &cli.Command{
	Name:   "devices",
	Usage:  "List connected Android devices",
	Action: runDevices,
}

func runDevices(c *cli.Context) error {
	adb, err := newADB(configFrom(c))
	if err != nil {
		return err
	}

	devices, err := adb.ListDevices(c.Context)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		printHint(c.App.Writer, "No devices connected. Start an emulator or plug in a device with USB debugging enabled.")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\n", d.ID, d.Status)
	}
	return tw.Flush()
}
