package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMessage_FirmwareWireFormat(t *testing.T) {
	// The exact shape the firmware accepts over the wire
	raw := `{"type":"robot_control","command":{"action":"move","direction":"forward","duration":2.5,"speed":50}}`

	msg, err := ParseMessage([]byte(raw))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.Type != TypeRobotControl {
		t.Fatalf("got type %q, want %q", msg.Type, TypeRobotControl)
	}

	cmd, err := msg.ControlCommand()
	if err != nil {
		t.Fatalf("ControlCommand: %v", err)
	}
	if cmd.Action != ActionMove {
		t.Errorf("got action %q, want %q", cmd.Action, ActionMove)
	}
	if cmd.Direction != "forward" || cmd.Duration != 2.5 || cmd.Speed != 50 {
		t.Errorf("got %+v, want forward 2.5s at 50", cmd)
	}
}

func TestControlCommand_Validation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"missing command", `{"type":"robot_control"}`, ErrMissingCommand},
		{"missing action", `{"type":"robot_control","command":{}}`, ErrMissingAction},
		{"empty action", `{"type":"robot_control","command":{"action":""}}`, ErrMissingAction},
	}
	for _, tt := range tests {
		msg, err := ParseMessage([]byte(tt.raw))
		if err != nil {
			t.Fatalf("%s: ParseMessage: %v", tt.name, err)
		}
		if _, err := msg.ControlCommand(); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestControlCommand_MalformedJSON(t *testing.T) {
	msg := &Message{Type: TypeRobotControl, Command: json.RawMessage(`"not an object"`)}
	if _, err := msg.ControlCommand(); err == nil {
		t.Error("malformed command payload should error")
	}
}

func TestNewSequenceCommand_RoundTrip(t *testing.T) {
	steps := []SequenceStep{
		{Direction: "forward", Duration: 1.0},
		{Direction: "left", Duration: 0.5},
		{Direction: "stop"},
	}
	msg, err := NewSequenceCommand(steps, 30)
	if err != nil {
		t.Fatalf("NewSequenceCommand: %v", err)
	}

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	cmd, err := parsed.ControlCommand()
	if err != nil {
		t.Fatalf("ControlCommand: %v", err)
	}
	if cmd.Action != ActionSequence || cmd.Speed != 30 {
		t.Errorf("got action=%q speed=%d, want sequence at 30", cmd.Action, cmd.Speed)
	}
	if len(cmd.Sequence) != 3 {
		t.Fatalf("got %d steps, want 3", len(cmd.Sequence))
	}
	if cmd.Sequence[1].Direction != "left" || cmd.Sequence[1].Duration != 0.5 {
		t.Errorf("step 1: got %+v, want left 0.5s", cmd.Sequence[1])
	}
}

func TestNewStatusMessage_WireFormat(t *testing.T) {
	msg, err := NewStatusMessage(true, "left", 40, 80)
	if err != nil {
		t.Fatalf("NewStatusMessage: %v", err)
	}

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	// Field names are part of the wire contract
	var wire struct {
		Type string `json:"type"`
		Data struct {
			IsMoving  bool   `json:"isMoving"`
			Direction string `json:"direction"`
			Speed     int    `json:"speed"`
			Battery   int    `json:"battery"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if wire.Type != "robot_status" {
		t.Errorf("got type %q, want robot_status", wire.Type)
	}
	if !wire.Data.IsMoving || wire.Data.Direction != "left" || wire.Data.Speed != 40 || wire.Data.Battery != 80 {
		t.Errorf("got %+v, want moving left at 40, battery 80", wire.Data)
	}
}

func TestNewPongMessage_Latency(t *testing.T) {
	msg, err := NewPongMessage("ping-1", 1000, 1042)
	if err != nil {
		t.Fatalf("NewPongMessage: %v", err)
	}

	var pong PongData
	if err := msg.ParseData(&pong); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if pong.LatencyMs != 42 {
		t.Errorf("got latency %d, want 42", pong.LatencyMs)
	}
	if pong.ID != "ping-1" || pong.PingTS != 1000 || pong.PongTS != 1042 {
		t.Errorf("got %+v, want ping-1 1000/1042", pong)
	}
}
