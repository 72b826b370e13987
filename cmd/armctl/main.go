package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-teleop/armctl/domain/diagnostic"
	"github.com/open-teleop/armctl/domain/teleop"
	"github.com/open-teleop/armctl/pkg/api"
	"github.com/open-teleop/armctl/pkg/config"
	"github.com/open-teleop/armctl/pkg/joystick"
	"github.com/open-teleop/armctl/pkg/kinematics"
	customlog "github.com/open-teleop/armctl/pkg/log"
	"github.com/open-teleop/armctl/pkg/serialarm"
	"github.com/open-teleop/armctl/pkg/telemetry"
	"github.com/open-teleop/armctl/services"
)

func main() {
	configPath := flag.String("config", "config/armctl_config.yaml", "path to the controller configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "armctl: %v\n", err)
		os.Exit(1)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "armctl: %v\n", err)
		os.Exit(1)
	}

	configService, err := services.NewConfigService(*configPath, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize config service: %v", err)
	}

	// Collaborators.
	js, err := joystick.Open(cfg.Joystick.Device)
	if err != nil {
		logger.Fatalf("Failed to open joystick '%s': %v", cfg.Joystick.Device, err)
	}
	defer js.Close()

	client, err := serialarm.Dial(cfg.Serial.Device, cfg.Serial.BaudRate, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to arm on '%s': %v", cfg.Serial.Device, err)
	}
	defer client.Close()

	solver := kinematics.SixDOFArm()
	metrics := diagnostic.NewService()
	controller := teleop.NewController(cfg, js, solver, client, metrics, logger)

	var publisher *telemetry.Publisher
	if cfg.Telemetry.PublishBindAddress != "" {
		publisher, err = telemetry.NewPublisher(cfg.Telemetry.PublishBindAddress, logger)
		if err != nil {
			logger.Fatalf("Failed to start telemetry publisher: %v", err)
		}
		defer publisher.Close()
	}

	app := newApp(controller, configService, metrics, logger)

	if cfg.Server.HTTPPort != 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
			logger.Infof("HTTP server starting on %s", addr)
			if err := app.Listen(addr); err != nil {
				logger.Errorf("HTTP server stopped: %v", err)
			}
		}()
	}

	runControlLoop(cfg, controller, publisher, logger)

	logger.Infof("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("HTTP server forced to shutdown: %v", err)
	}
	logger.Infof("Controller exited")
}

// newApp builds the Fiber app and registers all routes.
func newApp(controller *teleop.Controller, configService services.ConfigService, metrics *diagnostic.Service, logger customlog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "armctl",
		ErrorHandler: customErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "armctl controller",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/api/v1/diagnostics", metrics.GetMetricsHandler)

	api.RegisterStateRoutes(app, controller, logger)
	api.RegisterConfigRoutes(app, configService, logger)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(func(conn *websocket.Conn) {
		api.StateWebSocketHandler(conn, logger, controller)
	}))

	return app
}

// runControlLoop drives one tick per timer fire until the quit button is
// pressed, a signal arrives, or the joystick goes away.
func runControlLoop(cfg *config.Config, controller *teleop.Controller, publisher *telemetry.Publisher, logger customlog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Control.LoopRateHz))
	defer ticker.Stop()

	logger.Infof("Control loop running at %d Hz", cfg.Control.LoopRateHz)
	last := time.Now()

	for {
		select {
		case sig := <-quit:
			logger.Infof("Received signal %v, stopping control loop", sig)
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			if err := controller.Tick(dt); err != nil {
				logger.Errorf("Joystick read failed, stopping control loop: %v", err)
				return
			}

			if publisher != nil {
				if err := publisher.PublishState(controller.State()); err != nil {
					logger.Warnf("Telemetry publish failed: %v", err)
				}
			}

			if controller.ShouldQuit() {
				logger.Infof("Quit button pressed, stopping control loop")
				return
			}
		}
	}
}

// customErrorHandler returns API errors as JSON.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
