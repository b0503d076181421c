package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/pkg/hub"
)

// handleStatus returns the latest status for every known rover
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	rovers := make([]RoverStatus, 0, len(s.state))
	for _, rs := range s.state {
		rovers = append(rovers, rs)
	}
	s.stateMu.RUnlock()

	return c.JSON(fiber.Map{
		"rovers": rovers,
		"count":  len(rovers),
	})
}

// handleGetLogs returns the buffered log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	logs := make([]LogEntry, len(s.logs))
	copy(logs, s.logs)
	s.logsMu.RUnlock()

	return c.JSON(fiber.Map{
		"logs": logs,
	})
}

// handleStatusWS streams rover status updates over websocket
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)

	// Send a snapshot of every rover so new clients start current
	s.stateMu.RLock()
	for _, rs := range s.state {
		if data, err := json.Marshal(rs); err == nil {
			client.Queue(data)
		}
	}
	s.stateMu.RUnlock()

	client.Run()
}

// handleLogsWS streams log entries over websocket
func (s *Server) handleLogsWS(c *websocket.Conn) {
	client := hub.NewClient(s.logHub, c)

	// Replay recent history to new clients
	s.logsMu.RLock()
	start := 0
	if len(s.logs) > 50 {
		start = len(s.logs) - 50
	}
	for _, entry := range s.logs[start:] {
		if data, err := json.Marshal(entry); err == nil {
			client.Queue(data)
		}
	}
	s.logsMu.RUnlock()

	client.Run()
}
