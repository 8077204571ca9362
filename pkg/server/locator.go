package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/devicelab-dev/element-locator/pkg/core"
	"github.com/devicelab-dev/element-locator/pkg/locator"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

// locateRequest accepts x and y as JSON numbers or numeric strings.
type locateRequest struct {
	X      json.RawMessage `json:"x"`
	Y      json.RawMessage `json:"y"`
	Serial string          `json:"serial"`
	XML    string          `json:"xml"`
}

type LocatorAPI struct {
	Router fiber.Router
	Source HierarchySource
}

func (api *LocatorAPI) Register() {
	// Locate against a fresh dump from the device.
	api.Router.Post(
		"/locator", func(c *fiber.Ctx) error {
			req, x, y, err := parseLocateRequest(c)
			if err != nil {
				return err
			}

			doc, err := api.Source.DumpHierarchy(c.UserContext(), req.Serial)
			if err != nil {
				return err
			}

			return respondLocate(c, doc, x, y)
		},
	)

	// Locate against a dump supplied by the client.
	api.Router.Post(
		"/locator/xml", func(c *fiber.Ctx) error {
			req, x, y, err := parseLocateRequest(c)
			if err != nil {
				return err
			}
			return respondLocate(c, req.XML, x, y)
		},
	)
}

func parseLocateRequest(c *fiber.Ctx) (locateRequest, int, int, error) {
	var req locateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, 0, 0, core.ErrInvalidInput.WithMessage("request body must be a JSON object").WithCause(err)
	}

	x, y, err := locator.ParseCoordinates(string(req.X), string(req.Y))
	if err != nil {
		return req, 0, 0, err
	}
	return req, x, y, nil
}

func respondLocate(c *fiber.Ctx, doc string, x, y int) error {
	result, err := locator.Locate(doc, x, y)
	if err != nil {
		return err
	}

	logger.Info("Located %s at (%d, %d) [%v]: %s", result.Element.Class, x, y, c.Locals(requestIDKey), result.BestXPath)
	return c.JSON(result)
}
