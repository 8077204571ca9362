// Package server exposes the locator and device operations over HTTP.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/devicelab-dev/element-locator/pkg/device"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

const requestIDKey = "requestid"

// HierarchySource obtains hierarchy dumps and screenshots from a device.
// An empty serial selects the default device.
type HierarchySource interface {
	DumpHierarchy(ctx context.Context, serial string) (string, error)
	Screenshot(ctx context.Context, serial string) ([]byte, error)
}

// Options configures the HTTP server.
type Options struct {
	Port        int
	CORSOrigins string
}

// Server is the HTTP API.
type Server struct {
	app     *fiber.App
	opts    Options
	started time.Time
	done    chan struct{}
}

// New builds the fiber app and registers every route.
func New(opts Options, source HierarchySource, poller *device.Poller) *Server {
	s := &Server{
		opts:    opts,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "element-locator",
		DisableStartupMessage: true,
		ErrorHandler:          handleError,
		BodyLimit:             16 * 1024 * 1024, // hierarchy dumps of long lists get large
	})

	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}, ","),
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} [HTTP] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: logger.GetWriter(),
	}))

	api := app.Group("/api")

	(&HealthAPI{Router: api, Started: s.started, Poller: poller}).Register()
	(&DeviceAPI{Router: api, Poller: poller, Source: source, Done: s.done}).Register()
	(&LocatorAPI{Router: api, Source: source}).Register()

	s.app = app
	return s
}

// App returns the underlying fiber app (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	logger.Info("Server listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and ends open event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.app.ShutdownWithContext(ctx)
}
