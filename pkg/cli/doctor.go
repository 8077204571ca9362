package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/element-locator/pkg/core"
	"github.com/devicelab-dev/element-locator/pkg/device"
)

var doctorCommand = &cli.Command{
	Name:   "doctor",
	Usage:  "Check that adb is installed and devices are reachable",
	Action: runDoctor,
}

func runDoctor(c *cli.Context) error {
	w := c.App.Writer
	cfg := configFrom(c)

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	printStep(w, "Checking adb")
	adb, err := newADB(cfg)
	if err != nil {
		printFailure(w, "adb not found")
		printHint(w, "Install Android platform-tools and add them to PATH, or pass --adb.")
		return err
	}

	version, err := adb.Version(ctx)
	if err != nil {
		printFailure(w, fmt.Sprintf("adb at %s does not run", adb.Path()))
		printHint(w, "Reinstall Android platform-tools: https://developer.android.com/tools/releases/platform-tools")
		return core.ErrADBUnavailable.WithCause(err)
	}
	printSuccess(w, fmt.Sprintf("%s (%s)", version, adb.Path()))

	printStep(w, "Checking devices")
	devices, err := adb.ListDevices(ctx)
	if err != nil {
		printFailure(w, "Failed to check devices")
		return err
	}

	ready := 0
	for _, d := range devices {
		if d.Status != "device" {
			printFailure(w, fmt.Sprintf("%s: %s", d.ID, d.Status))
			printHint(w, statusHint(d.Status))
			continue
		}
		ready++
		printSuccess(w, describeDevice(ctx, adb, d.ID))
	}

	if ready == 0 {
		printFailure(w, "No usable device")
		printHint(w, "Start an emulator or connect a device with USB debugging enabled.")
		return core.ErrNoDevice
	}
	return nil
}

func describeDevice(ctx context.Context, adb *device.ADB, serial string) string {
	dev, err := adb.Device(ctx, serial, device.DefaultDumpOptions())
	if err != nil {
		return serial
	}
	info, err := dev.Info(ctx)
	if err != nil || info.Model == "" {
		return serial
	}

	kind := "device"
	if info.IsEmulator {
		kind = "emulator"
	}
	return fmt.Sprintf("%s: %s %s, SDK %s (%s)", serial, info.Brand, info.Model, info.SDK, kind)
}

func statusHint(status string) string {
	switch status {
	case "unauthorized":
		return "Accept the USB debugging prompt on the device."
	case "offline":
		return "Reconnect the device or restart adb with 'adb kill-server'."
	default:
		return "Check the connection and run 'adb devices'."
	}
}

