package battery

import (
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

// INA219 register map (bus voltage only; the current and power registers
// need calibration we don't use for a charge estimate).
const (
	regBusVoltage = 0x02

	busVoltageLSB = 0.004 // 4 mV per bit, upper 13 bits of the register

	// 2S lithium pack discharge window.
	defaultEmptyVolts = 6.4
	defaultFullVolts  = 8.4
)

// DefaultAddr is the INA219 address with A0 strapped high, matching the
// reference power board.
const DefaultAddr = 0x41

// INA219 reads the pack voltage from an INA219 power monitor over I²C and
// converts it to a charge percentage.
type INA219 struct {
	bus   i2c.BusCloser
	dev   *i2c.Dev
	empty float64
	full  float64
}

// NewINA219 opens the named I²C bus ("" for the first available) and
// prepares the sensor at the given address.
func NewINA219(busName string, addr uint16) (*INA219, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", busName, err)
	}
	return &INA219{
		bus:   bus,
		dev:   &i2c.Dev{Addr: addr, Bus: bus},
		empty: defaultEmptyVolts,
		full:  defaultFullVolts,
	}, nil
}

// Level reads the bus voltage and maps it onto the pack's charge window.
func (s *INA219) Level() (int, error) {
	volts, err := s.readBusVoltage()
	if err != nil {
		return 0, fmt.Errorf("failed to read bus voltage: %w", err)
	}
	return Percent(volts, s.empty, s.full), nil
}

func (s *INA219) readBusVoltage() (float64, error) {
	var buf [2]byte
	if err := s.dev.Tx([]byte{regBusVoltage}, buf[:]); err != nil {
		return 0, err
	}
	raw := uint16(buf[0])<<8 | uint16(buf[1])
	return float64(raw>>3) * busVoltageLSB, nil
}

// Close releases the I²C bus.
func (s *INA219) Close() error {
	return s.bus.Close()
}

var _ Sensor = (*INA219)(nil)
