package hw

import (
	"log"
	"time"
)

// SimLock logs actuation instead of driving a pin. Dev mode only.
type SimLock struct {
	logger *log.Logger
}

func NewSimLock(logger *log.Logger) *SimLock {
	return &SimLock{logger: logger}
}

func (l *SimLock) SetLocked(locked bool) error {
	if locked {
		l.logger.Printf("sim lock: locked")
	} else {
		l.logger.Printf("sim lock: unlocked")
	}
	return nil
}

// SimBuzzer logs tones. It still sleeps for the tone duration so the
// control loop blocks the same way it does on hardware.
type SimBuzzer struct {
	logger *log.Logger
}

func NewSimBuzzer(logger *log.Logger) *SimBuzzer {
	return &SimBuzzer{logger: logger}
}

func (b *SimBuzzer) Play(freqHz int, d time.Duration) {
	b.logger.Printf("sim buzzer: %d Hz for %s", freqHz, d)
	time.Sleep(d)
}
