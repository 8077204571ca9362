package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/element-locator/pkg/device"
	"github.com/devicelab-dev/element-locator/pkg/logger"
	"github.com/devicelab-dev/element-locator/pkg/server"
)

const shutdownTimeout = 5 * time.Second

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP API and the device poller",
	Description: `Serve the locator over HTTP.

Endpoints:
  GET  /api/health
  GET  /api/devices
  GET  /api/devices/stream   (server-sent events)
  GET  /api/screenshot
  POST /api/locator          {"x": 540, "y": 1200}
  POST /api/locator/xml      {"xml": "<hierarchy>...", "x": 540, "y": 1200}`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to listen on (overrides config and PORT)",
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	adb, err := newADB(cfg)
	if err != nil {
		// Keep serving: the poller reports adb as unavailable until it shows up.
		logger.Warn("adb not found (%v), falling back to \"adb\"", err)
		adb, _ = device.NewADB("adb")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := device.NewPoller(adb, cfg.PollInterval)
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Device poller stopped: %v", err)
		}
	}()

	srv := server.New(server.Options{Port: cfg.Port, CORSOrigins: cfg.CORSOrigins}, sourceFor(adb, cfg), poller)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	printSuccess(c.App.Writer, fmt.Sprintf("Listening on http://localhost:%d/api", cfg.Port))
	logger.Debug("Using adb at %s", adb.Path())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	printStep(c.App.Writer, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
