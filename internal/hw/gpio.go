// Package hw binds the door controller's actuator and buzzer contracts to
// real GPIO, with simulated stand-ins for dev mode.
package hw

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Init loads the host's GPIO drivers. Call once before constructing any
// hardware-backed component.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("hw: host init: %w", err)
	}
	return nil
}

// Lock drives the lock actuator through its transistor switch: logical
// high engages the unlocked position, low the locked position.
type Lock struct {
	pin gpio.PinIO
}

// NewLock resolves the pin and asserts it low (locked).
func NewLock(pinName string) (*Lock, error) {
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, fmt.Errorf("hw: no such pin %q", pinName)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("hw: init %s: %w", pinName, err)
	}
	return &Lock{pin: p}, nil
}

func (l *Lock) SetLocked(locked bool) error {
	if locked {
		return l.pin.Out(gpio.Low)
	}
	return l.pin.Out(gpio.High)
}

// Buzzer emits tones by PWM-driving a piezo at the requested frequency.
type Buzzer struct {
	pin gpio.PinIO
}

func NewBuzzer(pinName string) (*Buzzer, error) {
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, fmt.Errorf("hw: no such pin %q", pinName)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("hw: init %s: %w", pinName, err)
	}
	return &Buzzer{pin: p}, nil
}

// Play blocks for the tone's duration, then silences the pin.
func (b *Buzzer) Play(freqHz int, d time.Duration) {
	f := physic.Frequency(freqHz) * physic.Hertz
	if err := b.pin.PWM(gpio.DutyMax/2, f); err != nil {
		// Pins without PWM support stay silent; the pattern's timing is
		// still honored so the state machine behaves identically.
		time.Sleep(d)
		return
	}
	time.Sleep(d)
	_ = b.pin.Halt()
	_ = b.pin.Out(gpio.Low)
}
