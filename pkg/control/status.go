package control

import (
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

// Status builds a robot_status message from a snapshot of the motion state
// and a fresh battery reading. A failed battery read degrades to 0 rather
// than failing the reply.
func (d *Dispatcher) Status() *protocol.Message {
	snap := d.motion.Snapshot()

	level, err := d.battery.Level()
	if err != nil {
		log.Warn("battery read failed, reporting 0", "error", err)
		level = 0
	}

	msg, err := protocol.NewStatusMessage(snap.Moving, snap.Direction.String(), snap.Speed, level)
	if err != nil {
		log.Error("failed to build status message", "error", err)
		return nil
	}
	return msg
}
