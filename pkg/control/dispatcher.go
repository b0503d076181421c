// Package control routes decoded control commands to the motion controller
// and builds status replies. It is the boundary where wire strings become
// typed values; anything malformed is logged and dropped without actuating.
package control

import (
	"errors"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/battery"
	"github.com/teslashibe/go-rover/pkg/motion"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

// Dispatcher maps inbound robot_control messages to motion operations.
type Dispatcher struct {
	motion  *motion.Controller
	battery battery.Sensor
}

// NewDispatcher creates a dispatcher driving the given controller.
// sensor may not be nil; use battery.Fixed for development.
func NewDispatcher(ctrl *motion.Controller, sensor battery.Sensor) *Dispatcher {
	return &Dispatcher{motion: ctrl, battery: sensor}
}

// Dispatch routes one robot_control message and returns the reply to send,
// or nil when the command produces none. Malformed input never actuates
// anything and never produces a reply; no error is fatal.
func (d *Dispatcher) Dispatch(msg *protocol.Message) *protocol.Message {
	if msg.Type != protocol.TypeRobotControl {
		return nil
	}

	cmd, err := msg.ControlCommand()
	if err != nil {
		log.Warn("dropping malformed control message", "error", err)
		return nil
	}

	switch cmd.Action {
	case protocol.ActionMove:
		d.handleMove(cmd)
	case protocol.ActionSequence:
		d.handleSequence(cmd)
	case protocol.ActionGetStatus:
		return d.Status()
	default:
		log.Warn("ignoring control command", "error", protocol.ErrUnknownAction,
			"action", string(cmd.Action))
	}
	return nil
}

func (d *Dispatcher) handleMove(cmd *protocol.ControlCommand) {
	dir, err := motion.ParseDirection(cmd.Direction)
	if err != nil {
		log.Warn("ignoring move command", "error", err)
		return
	}
	if err := d.motion.ExecuteMove(dir, cmd.Duration, clampSpeed(cmd.Speed)); err != nil {
		log.Error("move failed", "direction", dir.String(), "error", err)
	}
}

func (d *Dispatcher) handleSequence(cmd *protocol.ControlCommand) {
	steps := make([]motion.Step, 0, len(cmd.Sequence))
	for i, s := range cmd.Sequence {
		dir, err := motion.ParseDirection(s.Direction)
		if err != nil {
			// One bad step rejects the whole sequence; partial
			// actuation would be worse than none.
			log.Warn("ignoring sequence command", "step", i, "error", err)
			return
		}
		steps = append(steps, motion.Step{Direction: dir, Duration: s.Duration})
	}

	err := d.motion.StartSequence(steps, clampSpeed(cmd.Speed))
	switch {
	case errors.Is(err, motion.ErrSequenceActive):
		log.Warn("rejecting sequence command", "error", err)
	case err != nil:
		log.Warn("ignoring sequence command", "error", err)
	}
}

func clampSpeed(speed int) int {
	if speed < 0 {
		return 0
	}
	if speed > 100 {
		return 100
	}
	return speed
}
