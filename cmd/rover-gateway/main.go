// rover-gateway: Fleet gateway for rover agents
// Accepts WebSocket connections from rovers and exposes a control API
// plus a live dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/gateway"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/web"
)

var (
	version       = "1.0.0"
	port          = flag.Int("port", 8080, "HTTP server port")
	dashboardPort = flag.String("dashboard-port", "8081", "Dashboard port (empty disables)")
	debug         = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	// Override from environment
	if envPort := os.Getenv("PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", port)
	}

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	fmt.Println()
	fmt.Println("🛰️  Rover Gateway v" + version)
	fmt.Println("   Fleet control service")
	fmt.Println()

	app := fiber.New(fiber.Config{
		AppName:               "rover-gateway",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if *debug {
		app.Use(logger.New())
	}

	// Rover hub
	hub := gateway.NewHub()
	hub.RegisterRoutes(app)

	api := app.Group("/api")
	hub.RegisterAPIRoutes(api)

	// Health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version,
			"rovers":  hub.RoverCount(),
		})
	})

	// Metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		stats := hub.GetStats()
		return c.SendString(fmt.Sprintf(`# HELP rover_gateway_rovers Connected rover count
# TYPE rover_gateway_rovers gauge
rover_gateway_rovers %d

# HELP rover_gateway_messages_received Total messages received
# TYPE rover_gateway_messages_received counter
rover_gateway_messages_received %d

# HELP rover_gateway_messages_sent Total messages sent
# TYPE rover_gateway_messages_sent counter
rover_gateway_messages_sent %d

# HELP rover_gateway_status_received Total status reports received
# TYPE rover_gateway_status_received counter
rover_gateway_status_received %d
`, stats.RoverCount, stats.MessagesReceived, stats.MessagesSent, stats.StatusReceived))
	})

	// Dashboard
	var dash *web.Server
	if *dashboardPort != "" {
		dash = web.NewServer(*dashboardPort)
		dash.StartAsync()

		hub.OnStatus(func(roverID string, status *protocol.StatusData) {
			dash.UpdateRover(roverID, status)
			if status.IsMoving {
				dash.AddLog("status", fmt.Sprintf("%s moving %s at %d%%", roverID, status.Direction, status.Speed))
			}
		})
	}

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", *port)
		log.Info("gateway listening", "addr", addr)
		log.Info("websocket endpoint", "url", fmt.Sprintf("ws://localhost:%d/ws/robot", *port))
		log.Info("api endpoint", "url", fmt.Sprintf("http://localhost:%d/api/rovers", *port))

		if err := app.Listen(addr); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if dash != nil {
		if err := dash.Shutdown(); err != nil {
			log.Warn("dashboard shutdown error", "error", err)
		}
	}
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn("shutdown error", "error", err)
	}
}
