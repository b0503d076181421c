package control

import (
	"errors"
	"sync"
	"testing"

	"github.com/teslashibe/go-rover/pkg/battery"
	"github.com/teslashibe/go-rover/pkg/motion"
	"github.com/teslashibe/go-rover/pkg/motor"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

// mockDriver records actuation calls for testing
type mockDriver struct {
	mu    sync.Mutex
	calls int
}

func (m *mockDriver) Set(left, right motor.Output) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

func (m *mockDriver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failingBattery always errors
type failingBattery struct{}

func (failingBattery) Level() (int, error) {
	return 0, errors.New("i2c read failed")
}

func newTestDispatcher(sensor battery.Sensor) (*Dispatcher, *motion.Controller, *mockDriver) {
	mock := &mockDriver{}
	ctrl := motion.NewController(mock)
	return NewDispatcher(ctrl, sensor), ctrl, mock
}

func mustMove(t *testing.T, direction string, duration float64, speed int) *protocol.Message {
	t.Helper()
	msg, err := protocol.NewMoveCommand(direction, duration, speed)
	if err != nil {
		t.Fatalf("NewMoveCommand: %v", err)
	}
	return msg
}

func TestDispatch_MoveCommand(t *testing.T) {
	d, ctrl, _ := newTestDispatcher(battery.Fixed(100))

	reply := d.Dispatch(mustMove(t, "right", 0, 70))
	if reply != nil {
		t.Errorf("move should not produce a reply, got %+v", reply)
	}

	snap := ctrl.Snapshot()
	if !snap.Moving || snap.Direction != motion.Right || snap.Speed != 70 {
		t.Errorf("got %+v, want moving right at 70", snap)
	}
}

func TestDispatch_GetStatusWhileMoving(t *testing.T) {
	d, _, _ := newTestDispatcher(battery.Fixed(88))

	d.Dispatch(mustMove(t, "right", 0, 70))

	query, err := protocol.NewStatusQuery()
	if err != nil {
		t.Fatalf("NewStatusQuery: %v", err)
	}
	reply := d.Dispatch(query)
	if reply == nil {
		t.Fatal("get_status should produce a reply")
	}
	if reply.Type != protocol.TypeRobotStatus {
		t.Fatalf("got type %q, want %q", reply.Type, protocol.TypeRobotStatus)
	}

	status, err := reply.StatusData()
	if err != nil {
		t.Fatalf("StatusData: %v", err)
	}
	if !status.IsMoving || status.Direction != "right" || status.Speed != 70 || status.Battery != 88 {
		t.Errorf("got %+v, want moving right at 70, battery 88", status)
	}
}

func TestDispatch_IgnoresNonControlMessages(t *testing.T) {
	d, _, mock := newTestDispatcher(battery.Fixed(100))

	msg, err := protocol.NewStatusMessage(false, "stop", 0, 50)
	if err != nil {
		t.Fatalf("NewStatusMessage: %v", err)
	}
	if reply := d.Dispatch(msg); reply != nil {
		t.Errorf("status message should be ignored, got %+v", reply)
	}
	if mock.callCount() != 0 {
		t.Errorf("got %d driver calls, want 0", mock.callCount())
	}
}

func TestDispatch_MalformedCommandDropped(t *testing.T) {
	d, _, mock := newTestDispatcher(battery.Fixed(100))

	tests := []struct {
		name string
		raw  string
	}{
		{"no command field", `{"type":"robot_control"}`},
		{"no action field", `{"type":"robot_control","command":{}}`},
		{"unknown action", `{"type":"robot_control","command":{"action":"dance"}}`},
	}
	for _, tt := range tests {
		msg, err := protocol.ParseMessage([]byte(tt.raw))
		if err != nil {
			t.Fatalf("%s: ParseMessage: %v", tt.name, err)
		}
		if reply := d.Dispatch(msg); reply != nil {
			t.Errorf("%s: got reply %+v, want none", tt.name, reply)
		}
	}

	if mock.callCount() != 0 {
		t.Errorf("malformed commands actuated the motors %d times", mock.callCount())
	}
}

func TestDispatch_UnknownDirectionIsNoOp(t *testing.T) {
	d, ctrl, mock := newTestDispatcher(battery.Fixed(100))

	d.Dispatch(mustMove(t, "sideways", 1.0, 50))

	if snap := ctrl.Snapshot(); snap.Moving {
		t.Errorf("got %+v, want unchanged stopped state", snap)
	}
	if mock.callCount() != 0 {
		t.Errorf("got %d driver calls, want 0", mock.callCount())
	}
}

func TestDispatch_SpeedClamped(t *testing.T) {
	d, ctrl, _ := newTestDispatcher(battery.Fixed(100))

	d.Dispatch(mustMove(t, "forward", 0, 250))
	if snap := ctrl.Snapshot(); snap.Speed != 100 {
		t.Errorf("got speed %d, want clamped to 100", snap.Speed)
	}

	d.Dispatch(mustMove(t, "forward", 0, -5))
	if snap := ctrl.Snapshot(); snap.Speed != 0 {
		t.Errorf("got speed %d, want clamped to 0", snap.Speed)
	}
}

func TestDispatch_SequenceCommand(t *testing.T) {
	d, ctrl, _ := newTestDispatcher(battery.Fixed(100))

	steps := []protocol.SequenceStep{
		{Direction: "forward", Duration: 1.0},
		{Direction: "left", Duration: 0.5},
	}
	msg, err := protocol.NewSequenceCommand(steps, 30)
	if err != nil {
		t.Fatalf("NewSequenceCommand: %v", err)
	}

	if reply := d.Dispatch(msg); reply != nil {
		t.Errorf("sequence should not produce a reply, got %+v", reply)
	}
	if !ctrl.SequenceActive() {
		t.Error("sequence should be active")
	}
	if snap := ctrl.Snapshot(); !snap.Moving || snap.Direction != motion.Forward {
		t.Errorf("got %+v, want first step running", snap)
	}
}

func TestDispatch_SequenceBadStepRejectsAll(t *testing.T) {
	d, ctrl, mock := newTestDispatcher(battery.Fixed(100))

	steps := []protocol.SequenceStep{
		{Direction: "forward", Duration: 1.0},
		{Direction: "diagonal", Duration: 1.0},
	}
	msg, err := protocol.NewSequenceCommand(steps, 30)
	if err != nil {
		t.Fatalf("NewSequenceCommand: %v", err)
	}

	d.Dispatch(msg)

	if ctrl.SequenceActive() {
		t.Error("sequence with a bad step should be rejected entirely")
	}
	if mock.callCount() != 0 {
		t.Errorf("rejected sequence actuated the motors %d times", mock.callCount())
	}
}

func TestStatus_BatteryErrorDegradesToZero(t *testing.T) {
	d, _, _ := newTestDispatcher(failingBattery{})

	reply := d.Status()
	if reply == nil {
		t.Fatal("Status should build a reply despite the battery error")
	}
	status, err := reply.StatusData()
	if err != nil {
		t.Fatalf("StatusData: %v", err)
	}
	if status.Battery != 0 {
		t.Errorf("got battery %d, want 0", status.Battery)
	}
}
