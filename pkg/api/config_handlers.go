package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/armctl/pkg/log"
	"github.com/open-teleop/armctl/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.ConfigService
	logger        customlog.Logger
}

// RegisterConfigRoutes registers the configuration API endpoints with the
// Fiber app.
func RegisterConfigRoutes(app *fiber.App, configService services.ConfigService, logger customlog.Logger) {
	h := &ConfigHandler{configService: configService, logger: logger}

	apiGroup := app.Group("/api/v1/config")
	apiGroup.Get("/", h.handleGetConfig)
	apiGroup.Put("/", h.handleUpdateConfig)

	logger.Infof("Registered configuration API endpoints under /api/v1/config")
}

// handleGetConfig returns the current configuration file as YAML.
func (h *ConfigHandler) handleGetConfig(c *fiber.Ctx) error {
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to read current config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateConfig validates and persists a new configuration YAML.
// Speed and device changes take effect on the next restart.
func (h *ConfigHandler) handleUpdateConfig(c *fiber.Ctx) error {
	newConfigYAML := c.Body()
	if len(newConfigYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.configService.UpdateConfig(newConfigYAML); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Configuration update failed: %v", err),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Configuration updated. Restart the controller to apply.",
	})
}
