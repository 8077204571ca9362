package device

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/element-locator/pkg/core"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// DumpOptions controls how hierarchy dumps are taken.
type DumpOptions struct {
	Dir        string        // device directory for the temporary dump file
	Retries    int           // extra attempts after a failed dump
	RetryDelay time.Duration // pause between attempts
}

// DefaultDumpOptions returns the options used when none are configured.
func DefaultDumpOptions() DumpOptions {
	return DumpOptions{
		Dir:        "/sdcard",
		Retries:    2,
		RetryDelay: 500 * time.Millisecond,
	}
}

// AndroidDevice is one device reachable through adb.
type AndroidDevice struct {
	serial string
	adb    *ADB
	opts   DumpOptions
}

// DeviceInfo contains basic device information.
type DeviceInfo struct {
	Serial     string `json:"serial"`
	Model      string `json:"model"`
	SDK        string `json:"sdk"`
	Brand      string `json:"brand"`
	IsEmulator bool   `json:"isEmulator"`
}

func newAndroidDevice(adb *ADB, serial string, opts DumpOptions) *AndroidDevice {
	if opts.Dir == "" {
		opts.Dir = DefaultDumpOptions().Dir
	}
	return &AndroidDevice{serial: serial, adb: adb, opts: opts}
}

// Serial returns the device serial number.
func (d *AndroidDevice) Serial() string {
	return d.serial
}

// Shell executes a shell command on the device.
func (d *AndroidDevice) Shell(ctx context.Context, cmd string) (string, error) {
	out, err := d.exec(ctx, "shell", cmd)
	return string(out), err
}

// Info returns device information.
func (d *AndroidDevice) Info(ctx context.Context) (DeviceInfo, error) {
	info := DeviceInfo{Serial: d.serial}

	if model, err := d.Shell(ctx, "getprop ro.product.model"); err == nil {
		info.Model = strings.TrimSpace(model)
	}
	if sdk, err := d.Shell(ctx, "getprop ro.build.version.sdk"); err == nil {
		info.SDK = strings.TrimSpace(sdk)
	}
	if brand, err := d.Shell(ctx, "getprop ro.product.brand"); err == nil {
		info.Brand = strings.TrimSpace(brand)
	}

	// Check if emulator
	chars, _ := d.Shell(ctx, "getprop ro.kernel.qemu")
	info.IsEmulator = strings.TrimSpace(chars) == "1"

	return info, nil
}

// DumpHierarchy captures the current UI hierarchy as XML.
//
// Each attempt dumps to a uniquely named file so concurrent callers do not
// read each other's output, and removes it afterwards.
func (d *AndroidDevice) DumpHierarchy(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= d.opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn("Hierarchy dump on %s failed (attempt %d/%d): %v", d.serial, attempt, d.opts.Retries+1, lastErr)
			select {
			case <-ctx.Done():
				return "", core.ErrDumpFailed.WithCause(ctx.Err())
			case <-time.After(d.opts.RetryDelay):
			}
		}

		doc, err := d.dumpOnce(ctx)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", core.ErrDumpFailed.WithCause(lastErr).WithDetails(map[string]interface{}{"serial": d.serial})
}

func (d *AndroidDevice) dumpOnce(ctx context.Context) (string, error) {
	remote := path.Join(d.opts.Dir, fmt.Sprintf("element-locator-%s.xml", uuid.New().String()))
	defer func() {
		if _, err := d.Shell(context.WithoutCancel(ctx), "rm -f "+remote); err != nil {
			logger.Debug("Failed to remove %s on %s: %v", remote, d.serial, err)
		}
	}()

	if _, err := d.Shell(ctx, "uiautomator dump "+remote); err != nil {
		return "", err
	}

	out, err := d.exec(ctx, "exec-out", "cat", remote)
	if err != nil {
		return "", err
	}
	if !bytes.Contains(out, []byte("<hierarchy")) {
		return "", fmt.Errorf("dump %s has no hierarchy element", remote)
	}
	logger.Debug("Dumped hierarchy from %s (%d bytes)", d.serial, len(out))
	return string(out), nil
}

// Screenshot captures the screen as PNG.
func (d *AndroidDevice) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := d.exec(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, core.ErrScreenshotFailed.WithCause(err)
	}
	if !bytes.HasPrefix(out, pngMagic) {
		return nil, core.ErrScreenshotFailed.WithMessage("screencap did not return a PNG image")
	}
	return out, nil
}

// exec runs an adb command against this device.
func (d *AndroidDevice) exec(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if d.serial != "" {
		cmdArgs = append(cmdArgs, "-s", d.serial)
	}
	cmdArgs = append(cmdArgs, args...)
	return d.adb.run(ctx, cmdArgs...)
}
