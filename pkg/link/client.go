package link

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Reconnect backoff bounds
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second

	sendBuffer = 64
)

// WSClient is a WebSocket client that dials the gateway and keeps the
// connection alive, reconnecting with exponential backoff.
type WSClient struct {
	url     string
	handler Handler
	send    chan *protocol.Message
}

// NewWSClient creates a client for the given gateway URL
// (e.g. ws://gateway:8080/ws/robot/rover-1).
func NewWSClient(url string, handler Handler) *WSClient {
	return &WSClient{
		url:     url,
		handler: handler,
		send:    make(chan *protocol.Message, sendBuffer),
	}
}

// Send queues an outbound message. Messages are dropped when the buffer is
// full; status reports are superseded by the next one anyway.
func (c *WSClient) Send(msg *protocol.Message) error {
	select {
	case c.send <- msg:
		return nil
	default:
		return errors.New("send buffer full, dropping message")
	}
}

// Run dials the gateway and serves the connection until the context is
// cancelled, redialing on failure.
func (c *WSClient) Run(ctx context.Context) error {
	backoff := reconnectMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.Warn("gateway dial failed", "url", c.url, "retry_in", backoff, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}

		log.Info("connected to gateway", "url", c.url)
		backoff = reconnectMin
		c.serve(ctx, conn)
		log.Warn("gateway connection lost", "url", c.url)
	}
}

// serve runs the read and write pumps until either fails or the context is
// cancelled. Only the write pump writes to the connection.
func (c *WSClient) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	go c.writePump(ctx, conn, done)
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("dropping unparseable message", "error", err)
			continue
		}
		c.handler(msg)
	}
}

func (c *WSClient) writePump(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
			return
		case msg := <-c.send:
			data, err := msg.Bytes()
			if err != nil {
				log.Warn("failed to encode outbound message", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ Transport = (*WSClient)(nil)
