package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/armctl/domain/teleop"
	customlog "github.com/open-teleop/armctl/pkg/log"
	"github.com/open-teleop/armctl/pkg/pose"
)

// StateProvider is the controller surface the API reads from.
type StateProvider interface {
	State() teleop.State
	Offset() pose.Offset
}

// StateHandler holds dependencies for the controller state endpoints.
type StateHandler struct {
	controller StateProvider
	logger     customlog.Logger
}

// RegisterStateRoutes registers the controller state endpoints with the
// Fiber app.
func RegisterStateRoutes(app *fiber.App, controller StateProvider, logger customlog.Logger) {
	h := &StateHandler{controller: controller, logger: logger}

	apiGroup := app.Group("/api/v1")
	apiGroup.Get("/state", h.handleGetState)
	apiGroup.Get("/offset", h.handleGetOffset)

	logger.Infof("Registered controller state API endpoints under /api/v1")
}

// handleGetState returns the snapshot of the last completed tick.
func (h *StateHandler) handleGetState(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"state":  h.controller.State(),
	})
}

// handleGetOffset returns the accumulated 7-DOF pose offset.
func (h *StateHandler) handleGetOffset(c *fiber.Ctx) error {
	offset := h.controller.Offset()
	return c.JSON(fiber.Map{
		"status": "success",
		"offset": offset,
		"labels": []string{"x", "y", "z", "a1", "a2", "a3", "gripper"},
	})
}
