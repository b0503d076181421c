package gateway

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-rover/pkg/protocol"
)

// sendError maps hub send failures onto API responses, preserving the
// 404 for a rover that is not connected.
func sendError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// RegisterAPIRoutes registers API routes for rover management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	rovers := api.Group("/rovers")

	// List connected rovers
	rovers.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"rovers": h.GetRoverInfos(),
			"count":  h.RoverCount(),
		})
	})

	// Get hub stats
	rovers.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	// Send a single move command to a rover
	rovers.Post("/:id/move", func(c *fiber.Ctx) error {
		roverID := c.Params("id")

		var cmd struct {
			Direction string  `json:"direction"`
			Duration  float64 `json:"duration"`
			Speed     int     `json:"speed"`
		}
		if err := c.BodyParser(&cmd); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		if err := h.SendMove(roverID, cmd.Direction, cmd.Duration, cmd.Speed); err != nil {
			return sendError(c, err)
		}

		return c.JSON(fiber.Map{"status": "sent"})
	})

	// Send a sequence command to a rover
	rovers.Post("/:id/sequence", func(c *fiber.Ctx) error {
		roverID := c.Params("id")

		var cmd struct {
			Sequence []protocol.SequenceStep `json:"sequence"`
			Speed    int                     `json:"speed"`
		}
		if err := c.BodyParser(&cmd); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		if err := h.SendSequence(roverID, cmd.Sequence, cmd.Speed); err != nil {
			return sendError(c, err)
		}

		return c.JSON(fiber.Map{"status": "sent"})
	})

	// Ask a rover to report its status
	rovers.Post("/:id/status", func(c *fiber.Ctx) error {
		roverID := c.Params("id")

		if err := h.RequestStatus(roverID); err != nil {
			return sendError(c, err)
		}

		return c.JSON(fiber.Map{"status": "requested"})
	})

	// Last status the rover reported
	rovers.Get("/:id/status", func(c *fiber.Ctx) error {
		roverID := c.Params("id")

		rover := h.GetRover(roverID)
		if rover == nil {
			return c.Status(404).JSON(fiber.Map{"error": "rover not connected"})
		}
		status := rover.LastStatus()
		if status == nil {
			return c.Status(404).JSON(fiber.Map{"error": "no status reported yet"})
		}
		return c.JSON(status)
	})
}
