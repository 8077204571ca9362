package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/element-locator/pkg/config"
	"github.com/devicelab-dev/element-locator/pkg/core"
	"github.com/devicelab-dev/element-locator/pkg/device"
	"github.com/devicelab-dev/element-locator/pkg/locator"
)

const loginScreen = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.example" content-desc="" clickable="false" enabled="true" bounds="[0,0][1080,1920]">
    <node index="0" text="Login" resource-id="com.example:id/login" class="android.widget.Button" package="com.example" content-desc="" clickable="true" enabled="true" bounds="[100,200][500,300]" />
    <node index="1" text="" resource-id="" class="android.widget.ImageView" package="com.example" content-desc="Logo" clickable="false" enabled="true" bounds="[100,400][500,800]" />
  </node>
</hierarchy>`

// scriptedADB answers adb invocations by prefix of the joined argument list.
type scriptedADB struct {
	responses [][2]string
	failures  map[string]error
	calls     []string
}

func (s *scriptedADB) on(prefix, out string) *scriptedADB {
	s.responses = append(s.responses, [2]string{prefix, out})
	return s
}

func (s *scriptedADB) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	joined := strings.Join(args, " ")
	s.calls = append(s.calls, joined)
	for prefix, err := range s.failures {
		if strings.HasPrefix(joined, prefix) {
			return nil, err
		}
	}
	for _, r := range s.responses {
		if strings.HasPrefix(joined, r[0]) {
			return []byte(r[1]), nil
		}
	}
	return nil, errors.New("unexpected command: " + joined)
}

func withADB(t *testing.T, runner device.Runner) {
	t.Helper()
	prev := newADB
	newADB = func(*config.Config) (*device.ADB, error) {
		return device.NewADBWithRunner("adb", runner), nil
	}
	t.Cleanup(func() { newADB = prev })
}

func writeDump(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "window_dump.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()

	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)

	full := []string{
		"element-locator", "--no-ansi",
		"--log-file", filepath.Join(dir, "test.log"),
		"--env-file", filepath.Join(dir, "missing.env"),
	}
	err := app.Run(append(full, args...))
	return out.String(), err
}

func TestLocate_FromFile(t *testing.T) {
	dump := writeDump(t, loginScreen)

	out, err := runApp(t, "", "locate", "--file", dump, "--x", "150", "--y", "250")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `//*[@resource-id="com.example:id/login" and @text="Login"]`, lines[0])
	assert.Contains(t, lines[1], "Resource ID + text match")
	assert.Contains(t, lines[1], "android.widget.Button [100,200][500,300]")
}

func TestLocate_All(t *testing.T) {
	dump := writeDump(t, loginScreen)

	out, err := runApp(t, "", "locate", "--file", dump, "--x", "150", "--y", "250", "--all")
	require.NoError(t, err)

	assert.Contains(t, out, ` 1. //*[@resource-id="com.example:id/login" and @text="Login"]`)
	assert.Contains(t, out, `//android.widget.Button[@resource-id="com.example:id/login"]`)
	assert.Contains(t, out, ` 7. //*[@bounds="[100,200][500,300]"]`)
	assert.Contains(t, out, "Resource ID + text match · unique")
}

func TestLocate_JSON(t *testing.T) {
	dump := writeDump(t, loginScreen)

	out, err := runApp(t, "", "locate", "--file", dump, "--x", "300", "--y", "600", "--json")
	require.NoError(t, err)

	var result locator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, `//*[@content-desc="Logo"]`, result.BestXPath)
	assert.Equal(t, "Content description match", result.Description)
	assert.Equal(t, "android.widget.ImageView", result.Element.Class)
	assert.Len(t, result.Path, 2)
}

func TestLocate_Stdin(t *testing.T) {
	out, err := runApp(t, loginScreen, "locate", "--file", "-", "--x", "150", "--y", "250")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `//*[@resource-id="com.example:id/login"`))
}

func TestLocate_NotFound(t *testing.T) {
	dump := writeDump(t, loginScreen)

	_, err := runApp(t, "", "locate", "--file", dump, "--x", "5000", "--y", "5000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestLocate_MalformedDump(t *testing.T) {
	dump := writeDump(t, "not xml at all")

	_, err := runApp(t, "", "locate", "--file", dump, "--x", "1", "--y", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrParse))
}

func TestLocate_RequiresCoordinates(t *testing.T) {
	dump := writeDump(t, loginScreen)

	_, err := runApp(t, "", "locate", "--file", dump, "--x", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "y")
}

func TestLocate_FromDevice(t *testing.T) {
	adb := (&scriptedADB{}).
		on("devices", "List of devices attached\nemulator-5554\tdevice\n").
		on("-s emulator-5554 shell uiautomator dump", "UI hierchary dumped to: /sdcard/x.xml").
		on("-s emulator-5554 exec-out cat", loginScreen).
		on("-s emulator-5554 shell rm -f", "")
	withADB(t, adb)

	out, err := runApp(t, "", "locate", "--x", "150", "--y", "250")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `//*[@resource-id="com.example:id/login"`))
	assert.Contains(t, strings.Join(adb.calls, "\n"), "shell uiautomator dump /sdcard/element-locator-")
}

func TestLocate_DeviceFlagSelectsSerial(t *testing.T) {
	adb := (&scriptedADB{}).
		on("-s R58M123 shell uiautomator dump", "").
		on("-s R58M123 exec-out cat", loginScreen).
		on("-s R58M123 shell rm -f", "")
	withADB(t, adb)

	_, err := runApp(t, "", "--device", "R58M123", "locate", "--x", "150", "--y", "250")
	require.NoError(t, err)
	for _, call := range adb.calls {
		assert.NotEqual(t, "devices", call, "explicit serial must skip auto-detection")
	}
}

func TestHierarchy_JSON(t *testing.T) {
	dump := writeDump(t, loginScreen)

	out, err := runApp(t, "", "hierarchy", "--file", dump)
	require.NoError(t, err)

	var root nodeView
	require.NoError(t, json.Unmarshal([]byte(out), &root))
	assert.Equal(t, "android.widget.FrameLayout", root.Class)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "com.example:id/login", root.Children[0].ResourceID)
	assert.True(t, root.Children[0].Clickable)
	assert.True(t, root.Children[0].Enabled)
	assert.Equal(t, "com.example", root.Children[0].Package)
	assert.False(t, root.Children[1].Clickable)
	assert.Equal(t, "[100,400][500,800]", root.Children[1].Bounds)
}

func TestHierarchy_Compact(t *testing.T) {
	dump := writeDump(t, loginScreen)

	out, err := runApp(t, "", "hierarchy", "--file", dump, "--compact")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"depth", "class", "resource-id", "text", "content-desc", "bounds"}, records[0])
	assert.Equal(t, []string{"0", "android.widget.FrameLayout", "", "", "", "[0,0][1080,1920]"}, records[1])
	assert.Equal(t, []string{"1", "android.widget.Button", "com.example:id/login", "Login", "", "[100,200][500,300]"}, records[2])
	assert.Equal(t, "Logo", records[3][4])
}

func TestDevices(t *testing.T) {
	withADB(t, (&scriptedADB{}).
		on("devices", "List of devices attached\nemulator-5554\tdevice\nR58M123\tunauthorized\n\n"))

	out, err := runApp(t, "", "devices")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"emulator-5554", "device"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"R58M123", "unauthorized"}, strings.Fields(lines[2]))
}

func TestDevices_None(t *testing.T) {
	withADB(t, (&scriptedADB{}).on("devices", "List of devices attached\n\n"))

	out, err := runApp(t, "", "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "No devices connected")
}

func TestDoctor(t *testing.T) {
	withADB(t, (&scriptedADB{}).
		on("version", "Android Debug Bridge version 1.0.41\nVersion 34.0.5\n").
		on("devices", "List of devices attached\nemulator-5554\tdevice\nR58M123\tunauthorized\n").
		on("-s emulator-5554 shell getprop ro.product.model", "sdk_gphone64_x86_64\n").
		on("-s emulator-5554 shell getprop ro.build.version.sdk", "34\n").
		on("-s emulator-5554 shell getprop ro.product.brand", "google\n").
		on("-s emulator-5554 shell getprop ro.kernel.qemu", "1\n"))

	out, err := runApp(t, "", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Android Debug Bridge version 1.0.41")
	assert.Contains(t, out, "emulator-5554: google sdk_gphone64_x86_64, SDK 34 (emulator)")
	assert.Contains(t, out, "R58M123: unauthorized")
	assert.Contains(t, out, "USB debugging prompt")
}

func TestDoctor_ADBBroken(t *testing.T) {
	withADB(t, &scriptedADB{failures: map[string]error{"version": errors.New("exec format error")}})

	out, err := runApp(t, "", "doctor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrADBUnavailable))
	assert.Contains(t, out, "does not run")
}

func TestDoctor_NoUsableDevice(t *testing.T) {
	withADB(t, (&scriptedADB{}).
		on("version", "Android Debug Bridge version 1.0.41\n").
		on("devices", "List of devices attached\nemulator-5554\toffline\n"))

	out, err := runApp(t, "", "doctor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoDevice))
	assert.Contains(t, out, "adb kill-server")
}

func TestSetup_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o600))

	_, err := runApp(t, "", "--config", path, "devices")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
}

func TestSetup_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: from-file\nadbPath: /opt/adb\n"), 0o600))

	var got *config.Config
	prev := newADB
	newADB = func(cfg *config.Config) (*device.ADB, error) {
		got = cfg
		return device.NewADBWithRunner("adb", (&scriptedADB{}).on("devices", "List of devices attached\n")), nil
	}
	t.Cleanup(func() { newADB = prev })

	_, err := runApp(t, "", "--config", path, "--device", "from-flag", "devices")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "from-flag", got.Device)
	assert.Equal(t, "/opt/adb", got.ADBPath)
}

func TestSetup_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ELEMENT_LOCATOR_DEVICE=from-env-file\n"), 0o600))
	t.Setenv(config.EnvDevice, "")
	os.Unsetenv(config.EnvDevice)

	var got *config.Config
	prev := newADB
	newADB = func(cfg *config.Config) (*device.ADB, error) {
		got = cfg
		return device.NewADBWithRunner("adb", (&scriptedADB{}).on("devices", "List of devices attached\n")), nil
	}
	t.Cleanup(func() { newADB = prev })

	app := NewApp()
	app.Writer = io.Discard
	err := app.Run([]string{"element-locator", "--log-file", filepath.Join(dir, "test.log"), "--env-file", envFile, "devices"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "from-env-file", got.Device)
}
