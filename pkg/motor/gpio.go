package motor

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// PWM frequency for the drive motors, matching the reference firmware.
const pwmFrequency = 5 * physic.KiloHertz

// Pins names the GPIO lines wired to the motor driver board.
type Pins struct {
	LeftForward   string
	LeftBackward  string
	RightForward  string
	RightBackward string
	LeftPWM       string
	RightPWM      string
}

// DefaultPins returns the reference wiring.
func DefaultPins() Pins {
	return Pins{
		LeftForward:   "GPIO2",
		LeftBackward:  "GPIO4",
		RightForward:  "GPIO16",
		RightBackward: "GPIO17",
		LeftPWM:       "GPIO5",
		RightPWM:      "GPIO18",
	}
}

// GPIODriver drives the motors through periph.io GPIO and PWM pins.
type GPIODriver struct {
	lf, lb, rf, rb gpio.PinOut
	lpwm, rpwm     gpio.PinOut
}

// NewGPIO initializes the host and claims the motor control pins.
// The motors start stopped.
func NewGPIO(pins Pins) (*GPIODriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph host: %w", err)
	}

	d := &GPIODriver{}
	for _, p := range []struct {
		name string
		out  *gpio.PinOut
	}{
		{pins.LeftForward, &d.lf},
		{pins.LeftBackward, &d.lb},
		{pins.RightForward, &d.rf},
		{pins.RightBackward, &d.rb},
		{pins.LeftPWM, &d.lpwm},
		{pins.RightPWM, &d.rpwm},
	} {
		pin := gpioreg.ByName(p.name)
		if pin == nil {
			return nil, fmt.Errorf("no such GPIO pin: %s", p.name)
		}
		*p.out = pin
	}

	if err := d.Set(Coast(), Coast()); err != nil {
		return nil, err
	}
	return d, nil
}

// Set applies both sides' direction pins and duty cycles.
func (d *GPIODriver) Set(left, right Output) error {
	if err := d.setSide(d.lf, d.lb, d.lpwm, left); err != nil {
		return fmt.Errorf("left motor: %w", err)
	}
	if err := d.setSide(d.rf, d.rb, d.rpwm, right); err != nil {
		return fmt.Errorf("right motor: %w", err)
	}
	return nil
}

func (d *GPIODriver) setSide(fwd, bwd, pwm gpio.PinOut, out Output) error {
	if err := fwd.Out(gpio.Level(out.Forward)); err != nil {
		return err
	}
	if err := bwd.Out(gpio.Level(out.Backward)); err != nil {
		return err
	}
	// Scale the native 0-255 duty onto periph's 24-bit duty range.
	duty := gpio.Duty(uint64(out.Duty) * uint64(gpio.DutyMax) / 255)
	return pwm.PWM(duty, pwmFrequency)
}

var _ Driver = (*GPIODriver)(nil)
