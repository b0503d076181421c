package battery

import "testing"

func TestPercent(t *testing.T) {
	tests := []struct {
		voltage float64
		want    int
	}{
		{6.4, 0},
		{8.4, 100},
		{7.4, 50},
		{6.9, 25},
		{5.0, 0},   // below empty clamps
		{9.0, 100}, // above full clamps
	}
	for _, tt := range tests {
		if got := Percent(tt.voltage, 6.4, 8.4); got != tt.want {
			t.Errorf("Percent(%.1f): got %d, want %d", tt.voltage, got, tt.want)
		}
	}
}

func TestFixed(t *testing.T) {
	sensor := Fixed(87)

	level, err := sensor.Level()
	if err != nil {
		t.Fatalf("Level: %v", err)
	}
	if level != 87 {
		t.Errorf("got %d, want 87", level)
	}
}
