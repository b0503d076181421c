package motion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"github.com/teslashibe/go-rover/internal/log"
)

// Step is one element of a move sequence, immutable once parsed.
type Step struct {
	Direction Direction
	Duration  float64 // seconds
}

var (
	// ErrSequenceActive is returned when a sequence command arrives while
	// another sequence is still executing. Execution is exclusive; there is
	// no queueing.
	ErrSequenceActive = errors.New("a sequence is already executing")

	// ErrEmptySequence is returned for a sequence with no steps.
	ErrEmptySequence = errors.New("sequence has no steps")
)

// Sequence lifecycle states and events. The engine is advanced once per
// poll tick instead of blocking between steps, so inbound commands can
// still preempt a running sequence.
const (
	seqIdle     = "idle"
	seqStepping = "stepping" // a step's move is in progress
	seqPausing  = "pausing"  // settling between steps

	evStart   = "start"
	evPause   = "pause"
	evAdvance = "advance"
	evFinish  = "finish"
	evAbort   = "abort"
)

type sequence struct {
	ctrl    *Controller
	machine *fsm.FSM

	steps      []Step
	index      int
	speed      int
	pauseUntil time.Time
}

func newSequence(c *Controller) *sequence {
	s := &sequence{ctrl: c}
	s.machine = fsm.NewFSM(
		seqIdle,
		fsm.Events{
			{Name: evStart, Src: []string{seqIdle}, Dst: seqStepping},
			{Name: evPause, Src: []string{seqStepping}, Dst: seqPausing},
			{Name: evAdvance, Src: []string{seqPausing}, Dst: seqStepping},
			{Name: evFinish, Src: []string{seqStepping, seqPausing}, Dst: seqIdle},
			{Name: evAbort, Src: []string{seqStepping, seqPausing}, Dst: seqIdle},
		},
		fsm.Callbacks{
			"enter_" + seqStepping: func(_ context.Context, _ *fsm.Event) {
				s.beginStep()
			},
		},
	)
	return s
}

func (s *sequence) activeLocked() bool {
	return s.machine.Current() != seqIdle
}

// startLocked validates and starts a sequence. Steps never terminate on
// their own without a positive duration, so those are rejected up front;
// a leading stop step makes the whole sequence a stop.
func (s *sequence) startLocked(ctx context.Context, steps []Step, speed int) error {
	if s.activeLocked() {
		return ErrSequenceActive
	}
	if len(steps) == 0 {
		return ErrEmptySequence
	}
	for i, step := range steps {
		if step.Direction != Stop && step.Duration <= 0 {
			return fmt.Errorf("sequence step %d: non-positive duration %v", i, step.Duration)
		}
	}

	s.steps = steps
	s.speed = speed
	s.index = 0

	log.Info("sequence started", "steps", len(steps), "speed", speed)

	if steps[0].Direction == Stop {
		log.Debug("sequence short-circuited by stop step", "step", 0)
		s.reset()
		return s.ctrl.stopLocked()
	}
	return s.machine.Event(ctx, evStart)
}

// pollLocked advances the engine by one tick. The caller has already run
// the move-deadline check, so a finished step shows up as !ctrl.moving.
func (s *sequence) pollLocked(ctx context.Context, now time.Time) {
	switch s.machine.Current() {
	case seqStepping:
		if s.ctrl.moving {
			return
		}
		if s.index == len(s.steps)-1 {
			s.finish(ctx)
			return
		}
		s.pauseUntil = now.Add(stepPause)
		s.event(ctx, evPause)

	case seqPausing:
		if now.Before(s.pauseUntil) {
			return
		}
		s.index++
		step := s.steps[s.index]
		if step.Direction == Stop {
			// A stop step terminates the sequence early; the
			// remaining steps are discarded.
			log.Debug("sequence short-circuited by stop step", "step", s.index)
			if err := s.ctrl.stopLocked(); err != nil {
				log.Warn("failed to stop motors", "error", err)
			}
			s.finish(ctx)
			return
		}
		s.event(ctx, evAdvance)
	}
}

// abortLocked discards an active sequence. The motors are left to the
// caller, which is issuing its own actuation.
func (s *sequence) abortLocked() {
	if !s.activeLocked() {
		return
	}
	log.Info("sequence aborted", "completed_steps", s.index)
	s.event(context.Background(), evAbort)
	s.reset()
}

// beginStep actuates the current step. Runs as the enter_stepping callback,
// with the controller mutex held by the poll or dispatch path above us.
func (s *sequence) beginStep() {
	step := s.steps[s.index]
	log.Debug("sequence step",
		"step", s.index, "direction", step.Direction.String(), "duration_s", step.Duration)
	if err := s.ctrl.executeMoveLocked(step.Direction, step.Duration, s.speed); err != nil {
		log.Warn("sequence step failed", "step", s.index, "error", err)
	}
}

func (s *sequence) finish(ctx context.Context) {
	log.Info("sequence complete", "steps", s.index+1)
	s.event(ctx, evFinish)
	s.reset()
}

func (s *sequence) reset() {
	s.steps = nil
	s.index = 0
	s.pauseUntil = time.Time{}
}

func (s *sequence) event(ctx context.Context, name string) {
	if err := s.machine.Event(ctx, name); err != nil {
		log.Warn("sequence state error", "event", name, "state", s.machine.Current(), "error", err)
	}
}
