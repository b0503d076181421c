// Package gateway provides the WebSocket hub for rover connections.
// Rovers dial in, the gateway forwards control commands to them and caches
// the status they report back.
package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

// RoverConnection represents a connected rover
type RoverConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu         sync.Mutex
	lastStatus *protocol.StatusData
}

// Send sends a message to the rover
func (r *RoverConnection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Conn.WriteMessage(websocket.TextMessage, data)
}

// LastStatus returns the most recent status the rover reported, or nil.
func (r *RoverConnection) LastStatus() *protocol.StatusData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStatus
}

// Hub manages WebSocket connections from rovers
type Hub struct {
	mu     sync.RWMutex
	rovers map[string]*RoverConnection

	// Callback for status reports (dashboard broadcast)
	onStatus func(roverID string, status *protocol.StatusData)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	statusReceived   atomic.Uint64
}

// NewHub creates a new rover hub
func NewHub() *Hub {
	return &Hub{
		rovers: make(map[string]*RoverConnection),
	}
}

// OnStatus sets the callback for incoming status reports
func (h *Hub) OnStatus(callback func(roverID string, status *protocol.StatusData)) {
	h.mu.Lock()
	h.onStatus = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Rover connection endpoint
	app.Get("/ws/robot", websocket.New(h.handleRover))
	app.Get("/ws/robot/:id", websocket.New(h.handleRover))
}

// handleRover handles a rover WebSocket connection
func (h *Hub) handleRover(c *websocket.Conn) {
	// Get rover ID from path or generate one
	roverID := c.Params("id")
	if roverID == "" {
		roverID = generateRoverID()
	}

	rover := &RoverConnection{
		ID:        roverID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.rovers[roverID] = rover
	roverCount := len(h.rovers)
	h.mu.Unlock()

	log.Info("rover connected", "rover", roverID, "total", roverCount)

	defer func() {
		h.mu.Lock()
		delete(h.rovers, roverID)
		roverCount := len(h.rovers)
		h.mu.Unlock()

		log.Info("rover disconnected", "rover", roverID, "total", roverCount)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("rover read error", "rover", roverID, "error", err)
			return
		}

		rover.mu.Lock()
		rover.LastSeen = time.Now()
		rover.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(rover, data)
	}
}

// handleMessage processes an incoming message from a rover
func (h *Hub) handleMessage(rover *RoverConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Warn("parse error", "rover", rover.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeRobotStatus:
		status, err := msg.StatusData()
		if err != nil {
			log.Warn("bad status payload", "rover", rover.ID, "error", err)
			return
		}
		h.statusReceived.Add(1)

		rover.mu.Lock()
		rover.lastStatus = status
		rover.mu.Unlock()

		h.mu.RLock()
		statusCb := h.onStatus
		h.mu.RUnlock()
		if statusCb != nil {
			statusCb(rover.ID, status)
		}

	case protocol.TypePing:
		h.sendPong(rover.ID, msg.Timestamp)
	}
}

// SendMove sends a single move command to a rover
func (h *Hub) SendMove(roverID, direction string, duration float64, speed int) error {
	msg, err := protocol.NewMoveCommand(direction, duration, speed)
	if err != nil {
		return err
	}
	return h.sendToRover(roverID, msg)
}

// SendSequence sends a sequence command to a rover
func (h *Hub) SendSequence(roverID string, steps []protocol.SequenceStep, speed int) error {
	msg, err := protocol.NewSequenceCommand(steps, speed)
	if err != nil {
		return err
	}
	return h.sendToRover(roverID, msg)
}

// RequestStatus asks a rover to report its status. The reply arrives
// asynchronously on the status callback and the per-rover cache.
func (h *Hub) RequestStatus(roverID string) error {
	msg, err := protocol.NewStatusQuery()
	if err != nil {
		return err
	}
	return h.sendToRover(roverID, msg)
}

// sendPong sends a pong response to a rover
func (h *Hub) sendPong(roverID string, pingTS int64) error {
	msg, err := protocol.NewPongMessage("", pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToRover(roverID, msg)
}

// sendToRover sends a message to a specific rover
func (h *Hub) sendToRover(roverID string, msg *protocol.Message) error {
	h.mu.RLock()
	rover, ok := h.rovers[roverID]
	h.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "rover not connected")
	}

	h.messagesSent.Add(1)
	return rover.Send(msg)
}

// GetRover returns a rover connection by ID
func (h *Hub) GetRover(roverID string) *RoverConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rovers[roverID]
}

// RoverCount returns the number of connected rovers
func (h *Hub) RoverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rovers)
}

// Stats contains hub statistics
type Stats struct {
	RoverCount       int    `json:"rover_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	StatusReceived   uint64 `json:"status_received"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		RoverCount:       h.RoverCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		StatusReceived:   h.statusReceived.Load(),
	}
}

// RoverInfo contains info about a connected rover
type RoverInfo struct {
	ID        string               `json:"id"`
	Connected time.Time            `json:"connected"`
	LastSeen  time.Time            `json:"last_seen"`
	Status    *protocol.StatusData `json:"status,omitempty"`
}

// GetRoverInfos returns info about all connected rovers
func (h *Hub) GetRoverInfos() []RoverInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]RoverInfo, 0, len(h.rovers))
	for _, r := range h.rovers {
		r.mu.Lock()
		infos = append(infos, RoverInfo{
			ID:        r.ID,
			Connected: r.Connected,
			LastSeen:  r.LastSeen,
			Status:    r.lastStatus,
		})
		r.mu.Unlock()
	}
	return infos
}

// generateRoverID generates a unique rover ID
func generateRoverID() string {
	return "rover-" + uuid.NewString()[:8]
}
