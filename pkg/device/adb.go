// Package device provides Android device access via ADB.
package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/devicelab-dev/element-locator/pkg/core"
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, errMsg)
	}
	return stdout.Bytes(), nil
}

// Info describes one entry of `adb devices`.
type Info struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"` // device, offline, unauthorized, ...
	LastSeen time.Time `json:"lastSeen"`
}

// ADB wraps the adb binary.
type ADB struct {
	path   string
	runner Runner
	now    func() time.Time
}

// NewADB locates adb (PATH lookup when path is empty) and returns a client.
func NewADB(path string) (*ADB, error) {
	if path == "" {
		found, err := findADB()
		if err != nil {
			return nil, err
		}
		path = found
	}
	return NewADBWithRunner(path, execRunner{}), nil
}

// NewADBWithRunner returns a client that executes commands through runner.
func NewADBWithRunner(path string, runner Runner) *ADB {
	return &ADB{path: path, runner: runner, now: time.Now}
}

// Path returns the adb binary in use.
func (a *ADB) Path() string {
	return a.path
}

// Version returns the first line of `adb version`.
func (a *ADB) Version(ctx context.Context) (string, error) {
	out, err := a.run(ctx, "version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// Available reports whether adb can be executed.
func (a *ADB) Available(ctx context.Context) bool {
	_, err := a.run(ctx, "version")
	return err == nil
}

// ListDevices returns every device adb knows about, in any state.
func (a *ADB) ListDevices(ctx context.Context) ([]Info, error) {
	out, err := a.run(ctx, "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(string(out), a.now()), nil
}

// parseDevices parses `adb devices` output. The header line and blank lines
// are skipped; entries are "serial<TAB>state".
func parseDevices(out string, seen time.Time) []Info {
	devices := []Info{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			continue
		}
		devices = append(devices, Info{
			ID:       strings.TrimSpace(parts[0]),
			Status:   strings.TrimSpace(parts[1]),
			LastSeen: seen,
		})
	}
	return devices
}

// Device returns a handle on serial, or on the first online device when serial is empty.
func (a *ADB) Device(ctx context.Context, serial string, opts DumpOptions) (*AndroidDevice, error) {
	if serial == "" {
		devices, err := a.ListDevices(ctx)
		if err != nil {
			return nil, core.ErrADBUnavailable.WithCause(err)
		}
		for _, d := range devices {
			if d.Status == "device" {
				serial = d.ID
				break
			}
		}
		if serial == "" {
			return nil, core.ErrNoDevice.WithMessage("no device specified and no connected device found")
		}
	}
	return newAndroidDevice(a, serial, opts), nil
}

func (a *ADB) run(ctx context.Context, args ...string) ([]byte, error) {
	return a.runner.Run(ctx, a.path, args...)
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	return "", core.ErrADBUnavailable
}
