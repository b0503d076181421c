// Package motor provides the actuation layer for a two-motor differential
// drive: each side has two direction pins (forward/backward) and a PWM duty
// cycle on the native 0-255 scale.
package motor

import (
	"sync"

	"github.com/teslashibe/go-rover/internal/log"
)

// Output is the actuation signal for one side of the drive train.
// Forward and Backward are the direction pin levels; both false coasts.
type Output struct {
	Forward  bool
	Backward bool
	Duty     uint8 // PWM duty cycle, 0-255
}

// Drive returns a forward output at the given duty cycle.
func Drive(duty uint8) Output {
	return Output{Forward: true, Duty: duty}
}

// Reverse returns a backward output at the given duty cycle.
func Reverse(duty uint8) Output {
	return Output{Backward: true, Duty: duty}
}

// Coast returns the neutral output: direction pins off, zero duty.
func Coast() Output {
	return Output{}
}

// Driver applies actuation signals to the motors. Implementations are
// stateless from the controller's point of view: every call fully
// overwrites the previous signal.
type Driver interface {
	Set(left, right Output) error
}

// Dummy returns a Driver that only logs, for development without hardware.
func Dummy() Driver {
	return &dummyDriver{}
}

type dummyDriver struct {
	mu          sync.Mutex
	left, right Output
}

func (d *dummyDriver) Set(left, right Output) error {
	d.mu.Lock()
	d.left, d.right = left, right
	d.mu.Unlock()
	log.Debug("dummy motor output",
		"left_fwd", left.Forward, "left_bwd", left.Backward, "left_duty", left.Duty,
		"right_fwd", right.Forward, "right_bwd", right.Backward, "right_duty", right.Duty)
	return nil
}

// Outputs returns the last applied signals.
func (d *dummyDriver) Outputs() (left, right Output) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.left, d.right
}
