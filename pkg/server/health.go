package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devicelab-dev/element-locator/pkg/device"
)

type HealthAPI struct {
	Router  fiber.Router
	Started time.Time
	Poller  *device.Poller
}

func (api *HealthAPI) Register() {
	// Reports the last poll only; it never runs adb itself.
	api.Router.Get(
		"/health", func(c *fiber.Ctx) error {
			snap := api.Poller.Latest()
			return c.JSON(fiber.Map{
				"status":       "ok",
				"timestamp":    time.Now().UTC().Format(time.RFC3339),
				"uptime":       time.Since(api.Started).Seconds(),
				"adbAvailable": snap.ADBAvailable,
				"devices":      len(snap.Devices),
			})
		},
	)
}
