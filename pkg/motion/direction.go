// Package motion implements the command state machine for a two-motor
// differential drive: timed single moves, ordered sequences of moves, and
// cooperative poll-based termination. The Controller owns the motion state
// and is the only writer of actuation signals.
package motion

import (
	"errors"
	"fmt"
)

// Direction is a drive direction. The drive supports pivot turns only:
// both sides run at the same duty cycle for all four moving directions.
type Direction int

const (
	Stop Direction = iota
	Forward
	Backward
	Left
	Right
)

// ErrUnknownDirection is returned when a direction string decoded from the
// wire does not name a known direction. The command is a no-op.
var ErrUnknownDirection = errors.New("unknown direction")

var directionNames = map[Direction]string{
	Stop:     "stop",
	Forward:  "forward",
	Backward: "backward",
	Left:     "left",
	Right:    "right",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection decodes a wire direction string into a Direction.
// Unrecognized values are rejected rather than silently ignored.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "stop":
		return Stop, nil
	case "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Stop, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}
