package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/devicelab-dev/element-locator/pkg/device"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

type DeviceAPI struct {
	Router fiber.Router
	Poller *device.Poller
	Source HierarchySource
	Done   <-chan struct{}
}

func (api *DeviceAPI) Register() {
	// Fresh device list; also updates what stream subscribers see.
	api.Router.Get(
		"/devices", func(c *fiber.Ctx) error {
			snap := api.Poller.Refresh(c.UserContext())
			if !snap.ADBAvailable {
				return c.Status(fiber.StatusInternalServerError).JSON(snap)
			}
			return c.JSON(snap)
		},
	)

	// Server-sent events: one "devices" event per poll.
	api.Router.Get(
		"/devices/stream", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "text/event-stream")
			c.Set(fiber.HeaderCacheControl, "no-cache")
			c.Set(fiber.HeaderConnection, "keep-alive")

			updates, unsubscribe := api.Poller.Subscribe()
			requestID := c.Locals(requestIDKey)
			logger.Info("Client connected to device stream [%v]", requestID)

			c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
				defer unsubscribe()
				defer logger.Info("Client disconnected from device stream [%v]", requestID)

				for {
					select {
					case <-api.Done:
						return
					case snap, ok := <-updates:
						if !ok {
							return
						}
						if err := writeEvent(w, "devices", snap); err != nil {
							return
						}
						if err := w.Flush(); err != nil {
							return
						}
					}
				}
			}))
			return nil
		},
	)

	api.Router.Get(
		"/screenshot", func(c *fiber.Ctx) error {
			png, err := api.Source.Screenshot(c.UserContext(), c.Query("serial"))
			if err != nil {
				return err
			}
			c.Set(fiber.HeaderCacheControl, "no-store")
			c.Type("png")
			return c.Send(png)
		},
	)
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w io.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
