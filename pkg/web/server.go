// Package web provides a real-time dashboard for the rover fleet
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

// RoverStatus is the dashboard's view of one rover
type RoverStatus struct {
	ID        string `json:"id"`
	IsMoving  bool   `json:"isMoving"`
	Direction string `json:"direction"`
	Speed     int    `json:"speed"`
	Battery   int    `json:"battery"`
	UpdatedAt string `json:"updated_at"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, command, status, error
	Message string `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	port string

	// Per-rover state
	state   map[string]RoverStatus
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	logHub    *hub.Hub
}

// NewServer creates a new web dashboard server
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		state:     make(map[string]RoverStatus),
		logs:      make([]LogEntry, 0, 500),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Rover Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// Start starts the web server
func (s *Server) Start() error {
	log.Info("dashboard listening", "port", s.port)

	go s.statusHub.Run()
	go s.logHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server error", "error", err)
		}
	}()
}

// UpdateRover records a rover's status report and broadcasts it
func (s *Server) UpdateRover(roverID string, status *protocol.StatusData) {
	entry := RoverStatus{
		ID:        roverID,
		IsMoving:  status.IsMoving,
		Direction: status.Direction,
		Speed:     status.Speed,
		Battery:   status.Battery,
		UpdatedAt: time.Now().Format("15:04:05"),
	}

	s.stateMu.Lock()
	s.state[roverID] = entry
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(entry)
}

// RemoveRover drops a disconnected rover from the dashboard
func (s *Server) RemoveRover(roverID string) {
	s.stateMu.Lock()
	delete(s.state, roverID)
	s.stateMu.Unlock()
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
