// Package protocol defines the WebSocket message types for rover-gateway
// communication. This package is shared between the onboard agent (cmd/rover)
// and the gateway (cmd/rover-gateway).
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Gateway → Rover messages
	TypeRobotControl MessageType = "robot_control" // Motion command

	// Rover → Gateway messages
	TypeRobotStatus MessageType = "robot_status" // Motion state + battery

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Action identifies the operation carried by a robot_control message.
type Action string

const (
	ActionMove      Action = "move"       // Single timed move
	ActionSequence  Action = "sequence"   // Ordered list of moves
	ActionGetStatus Action = "get_status" // Status query
)

// Decode errors. Malformed control messages are dropped by the dispatcher
// without actuating anything, so these must be distinguishable.
var (
	ErrMissingCommand = errors.New("robot_control message has no command field")
	ErrMissingAction  = errors.New("control command has no action field")
	ErrUnknownAction  = errors.New("unknown control action")
)

// Message is the base wrapper for all WebSocket messages.
// robot_control carries its payload under "command", everything else
// under "data", matching the firmware wire format.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Command   json.RawMessage `json:"command,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ControlCommand is the payload of a robot_control message.
type ControlCommand struct {
	Action    Action         `json:"action"`
	Direction string         `json:"direction,omitempty"` // move only
	Duration  float64        `json:"duration,omitempty"`  // move only, seconds
	Speed     int            `json:"speed,omitempty"`     // move, sequence; percent 0-100
	Sequence  []SequenceStep `json:"sequence,omitempty"`  // sequence only
}

// SequenceStep is one element of a sequence command.
type SequenceStep struct {
	Direction string  `json:"direction"`
	Duration  float64 `json:"duration"` // seconds
}

// StatusData is the payload of a robot_status message.
type StatusData struct {
	IsMoving  bool   `json:"isMoving"`
	Direction string `json:"direction"`
	Speed     int    `json:"speed"`
	Battery   int    `json:"battery"` // percent 0-100
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

// NewMessage creates a new message with the given data payload and the
// current timestamp. Use NewControlMessage for robot_control messages.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// NewControlMessage wraps a control command in a robot_control envelope.
func NewControlMessage(cmd ControlCommand) (*Message, error) {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal control command: %w", err)
	}
	return &Message{
		Type:      TypeRobotControl,
		Timestamp: time.Now().UnixMilli(),
		Command:   raw,
	}, nil
}

// ControlCommand extracts and validates the command payload of a
// robot_control message. A missing command or action field is a format
// error: the message must be dropped without actuating anything.
func (m *Message) ControlCommand() (*ControlCommand, error) {
	if len(m.Command) == 0 {
		return nil, ErrMissingCommand
	}
	var cmd ControlCommand
	if err := json.Unmarshal(m.Command, &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse control command: %w", err)
	}
	if cmd.Action == "" {
		return nil, ErrMissingAction
	}
	return &cmd, nil
}

// StatusData extracts the payload of a robot_status message.
func (m *Message) StatusData() (*StatusData, error) {
	var status StatusData
	if err := m.ParseData(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}
