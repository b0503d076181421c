package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/motor"
)

// DefaultPollInterval is the recommended control loop cadence. A timed move
// overshoots its deadline by at most one poll period, so this bounds the
// stop latency.
const DefaultPollInterval = 20 * time.Millisecond

// stepPause is the settling pause between sequence steps.
const stepPause = 100 * time.Millisecond

// Snapshot is a read-only copy of the motion state for status reporting.
type Snapshot struct {
	Direction Direction
	Speed     int // percent 0-100
	Moving    bool
}

// Controller owns the motion state and the motor driver. All state
// mutation happens under one mutex so the poll check and a concurrent
// command cannot race into a stop-then-restart.
type Controller struct {
	driver motor.Driver
	now    func() time.Time

	mu        sync.Mutex
	dir       Direction
	speed     int
	moving    bool
	startedAt time.Time
	duration  time.Duration // 0 = no auto-stop
	seq       *sequence
}

// NewController creates a stopped controller driving the given motors.
func NewController(driver motor.Driver) *Controller {
	c := &Controller{
		driver: driver,
		now:    time.Now,
	}
	c.seq = newSequence(c)
	return c
}

// DutyCycle converts a speed percentage to the motor's native 0-255 range.
func DutyCycle(speed int) uint8 {
	if speed < 0 {
		speed = 0
	}
	if speed > 100 {
		speed = 100
	}
	return uint8(math.Round(float64(speed) * 255.0 / 100.0))
}

// outputs maps a direction onto per-side actuation signals.
func outputs(dir Direction, duty uint8) (left, right motor.Output) {
	switch dir {
	case Forward:
		return motor.Drive(duty), motor.Drive(duty)
	case Backward:
		return motor.Reverse(duty), motor.Reverse(duty)
	case Left:
		return motor.Reverse(duty), motor.Drive(duty)
	case Right:
		return motor.Drive(duty), motor.Reverse(duty)
	default:
		return motor.Coast(), motor.Coast()
	}
}

// ExecuteMove starts a timed move, unconditionally overwriting any move in
// progress and aborting any active sequence. duration is in seconds; zero
// or negative arms no timer, so the rover moves until the next command.
// Stop as a direction stops immediately.
func (c *Controller) ExecuteMove(dir Direction, duration float64, speed int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq.abortLocked()
	return c.executeMoveLocked(dir, duration, speed)
}

func (c *Controller) executeMoveLocked(dir Direction, duration float64, speed int) error {
	if dir == Stop {
		return c.stopLocked()
	}

	left, right := outputs(dir, DutyCycle(speed))
	if err := c.driver.Set(left, right); err != nil {
		return err
	}

	c.dir = dir
	c.speed = speed
	c.moving = true
	c.startedAt = c.now()
	if duration > 0 {
		c.duration = time.Duration(duration * float64(time.Second))
	} else {
		c.duration = 0
	}

	log.Debug("move started",
		"direction", dir.String(), "duration_s", duration, "speed", speed)
	return nil
}

// Stop halts the rover immediately and discards any active sequence.
// Idempotent.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq.abortLocked()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	err := c.driver.Set(motor.Coast(), motor.Coast())
	c.dir = Stop
	c.speed = 0
	c.moving = false
	c.duration = 0
	return err
}

// Poll advances the state machine: it terminates a timed move whose
// deadline has passed and steps the sequence engine. This is the only
// place a move terminates itself; call it on a steady cadence.
func (c *Controller) Poll(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.moving && c.duration > 0 && now.Sub(c.startedAt) >= c.duration {
		if err := c.stopLocked(); err != nil {
			log.Warn("failed to stop motors", "error", err)
		}
		log.Debug("move complete")
	}

	c.seq.pollLocked(context.Background(), now)
}

// Run drives Poll on a steady cadence until the context is cancelled,
// then leaves the rover stopped.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := c.Stop(); err != nil {
				log.Warn("failed to stop motors on shutdown", "error", err)
			}
			return
		case t := <-ticker.C:
			c.Poll(t)
		}
	}
}

// StartSequence begins executing an ordered sequence of moves at one speed.
// Sequence execution is exclusive: starting one while another is active
// returns ErrSequenceActive.
func (c *Controller) StartSequence(steps []Step, speed int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.startLocked(context.Background(), steps, speed)
}

// SequenceActive reports whether a sequence is executing.
func (c *Controller) SequenceActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.activeLocked()
}

// Snapshot returns a copy of the current motion state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Direction: c.dir,
		Speed:     c.speed,
		Moving:    c.moving,
	}
}
