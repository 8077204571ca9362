package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/element-locator/pkg/config"
	"github.com/devicelab-dev/element-locator/pkg/device"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

// newADB creates the adb client. Tests replace it with a fake-backed client.
var newADB = func(cfg *config.Config) (*device.ADB, error) {
	return device.NewADB(cfg.ADBPath)
}

func deviceSource(cfg *config.Config) (*device.Source, error) {
	adb, err := newADB(cfg)
	if err != nil {
		return nil, err
	}
	return sourceFor(adb, cfg), nil
}

func sourceFor(adb *device.ADB, cfg *config.Config) *device.Source {
	return &device.Source{
		ADB:    adb,
		Serial: cfg.Device,
		Options: device.DumpOptions{
			Dir:        cfg.DumpDir,
			Retries:    cfg.DumpRetries,
			RetryDelay: 500 * time.Millisecond,
		},
	}
}

// readHierarchy returns the dump named by --file ("-" for stdin), or a fresh
// dump from the device when no file is given.
func readHierarchy(c *cli.Context, cfg *config.Config) (string, error) {
	switch path := c.String("file"); path {
	case "":
	case "-":
		data, err := io.ReadAll(c.App.Reader)
		return string(data), err
	default:
		data, err := os.ReadFile(path) //#nosec G304 -- user-provided dump file
		return string(data), err
	}

	src, err := deviceSource(cfg)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	logger.Info("Dumping hierarchy from %s", deviceLabel(cfg.Device))
	return src.DumpHierarchy(ctx, "")
}

func deviceLabel(serial string) string {
	if serial == "" {
		return "first connected device"
	}
	return serial
}
