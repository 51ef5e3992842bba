package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/parleyhq/parley-backend/internal/mcp"
)

// TestToolServer handles POST /api/v1/tool-servers/:id/test. It probes the
// configured server and reports reachability without invoking any method.
func TestToolServer(tools *mcp.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid tool server ID",
			})
		}

		reachable := tools.CheckConnectivity(c.Context(), id)
		status := "unreachable"
		if reachable {
			status = "ok"
		}
		return c.JSON(fiber.Map{
			"server_id": id.String(),
			"status":    status,
		})
	}
}
