package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewMoveCommand creates a robot_control message for a single timed move.
// duration is in seconds; zero means "move until told otherwise".
func NewMoveCommand(direction string, duration float64, speed int) (*Message, error) {
	return NewControlMessage(ControlCommand{
		Action:    ActionMove,
		Direction: direction,
		Duration:  duration,
		Speed:     speed,
	})
}

// NewSequenceCommand creates a robot_control message for an ordered sequence
// of moves executed at a single speed.
func NewSequenceCommand(steps []SequenceStep, speed int) (*Message, error) {
	return NewControlMessage(ControlCommand{
		Action:   ActionSequence,
		Speed:    speed,
		Sequence: steps,
	})
}

// NewStatusQuery creates a robot_control message requesting a status report.
func NewStatusQuery() (*Message, error) {
	return NewControlMessage(ControlCommand{Action: ActionGetStatus})
}

// NewStatusMessage creates a robot_status message from the reported state.
func NewStatusMessage(isMoving bool, direction string, speed, battery int) (*Message, error) {
	return NewMessage(TypeRobotStatus, StatusData{
		IsMoving:  isMoving,
		Direction: direction,
		Speed:     speed,
		Battery:   battery,
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}
