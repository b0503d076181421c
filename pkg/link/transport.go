// Package link provides the rover-side transports to the controller:
// a WebSocket client that dials the gateway, and an MQTT client for
// broker-based deployments. Both reconnect on their own; message delivery
// is fire-and-forget, matching the motion protocol's one-shot semantics.
package link

import (
	"context"

	"github.com/teslashibe/go-rover/pkg/protocol"
)

// Handler receives each decoded inbound message.
type Handler func(*protocol.Message)

// Transport is a bidirectional message link to the controller.
type Transport interface {
	// Run connects and serves until the context is cancelled,
	// reconnecting as needed.
	Run(ctx context.Context) error

	// Send queues an outbound message. It never blocks on the network.
	Send(msg *protocol.Message) error
}
