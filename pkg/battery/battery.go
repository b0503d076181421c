// Package battery reads the battery charge level for status reports.
package battery

// Sensor reports the battery charge as a percentage in [0,100].
type Sensor interface {
	Level() (int, error)
}

// Percent linearly maps a pack voltage onto 0-100 between the pack's
// empty and full voltages, clamped at the ends.
func Percent(voltage, empty, full float64) int {
	if full <= empty {
		return 0
	}
	pct := int((voltage - empty) / (full - empty) * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Fixed returns a Sensor that always reports the given level, for
// development without hardware.
func Fixed(level int) Sensor {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return fixedSensor(level)
}

type fixedSensor int

func (f fixedSensor) Level() (int, error) {
	return int(f), nil
}
