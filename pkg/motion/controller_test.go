package motion

import (
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-rover/pkg/motor"
)

// mockDriver records all actuation calls for testing
type mockDriver struct {
	mu    sync.Mutex
	calls []struct{ left, right motor.Output }
}

func (m *mockDriver) Set(left, right motor.Output) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, struct{ left, right motor.Output }{left, right})
	return nil
}

func (m *mockDriver) last() (left, right motor.Output) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return motor.Output{}, motor.Output{}
	}
	c := m.calls[len(m.calls)-1]
	return c.left, c.right
}

func (m *mockDriver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// newTestController returns a controller with a fake clock starting at t0.
func newTestController(t0 time.Time) (*Controller, *mockDriver, *time.Time) {
	mock := &mockDriver{}
	ctrl := NewController(mock)
	clock := t0
	ctrl.now = func() time.Time { return clock }
	return ctrl, mock, &clock
}

func TestDutyCycle(t *testing.T) {
	tests := []struct {
		speed int
		want  uint8
	}{
		{0, 0},
		{100, 255},
		{50, 128},
		{39, 99},
		{40, 102},
		{1, 3},
		{-10, 0},
		{150, 255},
	}
	for _, tt := range tests {
		if got := DutyCycle(tt.speed); got != tt.want {
			t.Errorf("DutyCycle(%d): got %d, want %d", tt.speed, got, tt.want)
		}
	}
}

func TestOutputs_DirectionTable(t *testing.T) {
	duty := uint8(128)
	tests := []struct {
		dir   Direction
		left  motor.Output
		right motor.Output
	}{
		{Forward, motor.Drive(duty), motor.Drive(duty)},
		{Backward, motor.Reverse(duty), motor.Reverse(duty)},
		{Left, motor.Reverse(duty), motor.Drive(duty)},
		{Right, motor.Drive(duty), motor.Reverse(duty)},
		{Stop, motor.Coast(), motor.Coast()},
	}
	for _, tt := range tests {
		left, right := outputs(tt.dir, duty)
		if left != tt.left || right != tt.right {
			t.Errorf("outputs(%v): got %+v/%+v, want %+v/%+v",
				tt.dir, left, right, tt.left, tt.right)
		}
	}
}

func TestExecuteMove_TimedMoveStopsAtDeadline(t *testing.T) {
	t0 := time.Now()
	ctrl, mock, _ := newTestController(t0)

	if err := ctrl.ExecuteMove(Forward, 2.0, 50); err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}

	left, right := mock.last()
	want := motor.Drive(DutyCycle(50))
	if left != want || right != want {
		t.Errorf("forward actuation: got %+v/%+v, want %+v both sides", left, right, want)
	}

	// Mid-move, still going
	ctrl.Poll(t0.Add(1 * time.Second))
	if snap := ctrl.Snapshot(); !snap.Moving || snap.Direction != Forward || snap.Speed != 50 {
		t.Errorf("at 1.0s: got %+v, want moving forward at 50", snap)
	}

	// Past the deadline, stopped
	ctrl.Poll(t0.Add(2100 * time.Millisecond))
	snap := ctrl.Snapshot()
	if snap.Moving || snap.Direction != Stop || snap.Speed != 0 {
		t.Errorf("at 2.1s: got %+v, want stopped", snap)
	}
	left, right = mock.last()
	if left != motor.Coast() || right != motor.Coast() {
		t.Errorf("after deadline: got %+v/%+v, want coast", left, right)
	}
}

func TestExecuteMove_ZeroDurationMovesIndefinitely(t *testing.T) {
	t0 := time.Now()
	ctrl, _, _ := newTestController(t0)

	if err := ctrl.ExecuteMove(Backward, 0, 40); err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}

	ctrl.Poll(t0.Add(time.Hour))
	if snap := ctrl.Snapshot(); !snap.Moving || snap.Direction != Backward {
		t.Errorf("after an hour: got %+v, want still moving backward", snap)
	}

	// Only an explicit stop ends it
	if err := ctrl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if snap := ctrl.Snapshot(); snap.Moving {
		t.Errorf("after stop: got %+v, want stopped", snap)
	}
}

func TestExecuteMove_StopDirectionStopsImmediately(t *testing.T) {
	t0 := time.Now()
	ctrl, mock, _ := newTestController(t0)

	if err := ctrl.ExecuteMove(Forward, 0, 60); err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}
	if err := ctrl.ExecuteMove(Stop, 5.0, 60); err != nil {
		t.Fatalf("ExecuteMove stop: %v", err)
	}

	if snap := ctrl.Snapshot(); snap.Moving {
		t.Errorf("got %+v, want stopped", snap)
	}
	left, right := mock.last()
	if left != motor.Coast() || right != motor.Coast() {
		t.Errorf("got %+v/%+v, want coast", left, right)
	}
}

func TestExecuteMove_OverwriteResetsDeadline(t *testing.T) {
	t0 := time.Now()
	ctrl, _, clock := newTestController(t0)

	if err := ctrl.ExecuteMove(Forward, 1.0, 50); err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}

	// New command mid-move restarts the timer
	*clock = t0.Add(800 * time.Millisecond)
	if err := ctrl.ExecuteMove(Left, 1.0, 50); err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}

	ctrl.Poll(t0.Add(1100 * time.Millisecond))
	if snap := ctrl.Snapshot(); !snap.Moving || snap.Direction != Left {
		t.Errorf("at 1.1s: got %+v, want moving left", snap)
	}

	ctrl.Poll(t0.Add(1900 * time.Millisecond))
	if snap := ctrl.Snapshot(); snap.Moving {
		t.Errorf("at 1.9s: got %+v, want stopped", snap)
	}
}

func TestStop_Idempotent(t *testing.T) {
	ctrl, mock, _ := newTestController(time.Now())

	if err := ctrl.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := ctrl.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	if snap := ctrl.Snapshot(); snap.Moving || snap.Direction != Stop {
		t.Errorf("got %+v, want stopped", snap)
	}
	if mock.callCount() != 2 {
		t.Errorf("got %d driver calls, want 2", mock.callCount())
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"forward", Forward, false},
		{"backward", Backward, false},
		{"left", Left, false},
		{"right", Right, false},
		{"stop", Stop, false},
		{"sideways", Stop, true},
		{"", Stop, true},
		{"Forward", Stop, true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q): err=%v, wantErr=%v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDirection(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
