// Package door holds the lock state machine: Locked, or Unlocked since a
// known instant, always returning to Locked when the unlock window ends.
package door

import (
	"log"
	"time"
)

// UnlockWindow is how long the door stays unlocked after a granted scan.
const UnlockWindow = 7 * time.Second

// Actuator asserts the lock output. true drives the actuator to the
// locked position, false to the unlocked position.
type Actuator interface {
	SetLocked(locked bool) error
}

// Buzzer emits a single tone. Play blocks for the tone's duration; the
// control loop accepts that scans and portal requests wait out a feedback
// pattern (200-300 ms).
type Buzzer interface {
	Play(freqHz int, d time.Duration)
}

type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Controller owns the door state. It is driven solely by the control loop
// goroutine; nothing else may call its methods.
type Controller struct {
	actuator Actuator
	buzzer   Buzzer
	logger   *log.Logger

	state      State
	unlockedAt time.Time
}

// NewController returns a controller in the Locked state with the
// actuator asserted locked, regardless of what it was before boot.
func NewController(a Actuator, b Buzzer, logger *log.Logger) *Controller {
	c := &Controller{actuator: a, buzzer: b, logger: logger, state: Locked}
	c.setLocked(true)
	return c
}

// HandleDecision applies an access decision at time now. A grant plays
// the ascending feedback pattern, unlocks, and (re)starts the unlock
// window; a denial plays the low pattern and re-asserts the lock even if
// already locked.
func (c *Controller) HandleDecision(granted bool, now time.Time) {
	if granted {
		c.buzzGranted()
		c.setLocked(false)
		c.state = Unlocked
		c.unlockedAt = now
		return
	}

	c.buzzDenied()
	c.setLocked(true)
	c.state = Locked
}

// Tick relocks once the unlock window has elapsed. This is the only
// automatic path back to Locked.
func (c *Controller) Tick(now time.Time) {
	if c.state != Unlocked {
		return
	}
	if now.Sub(c.unlockedAt) < UnlockWindow {
		return
	}

	c.setLocked(true)
	c.state = Locked
	c.logger.Printf("door auto-locked after %s", UnlockWindow)
}

// ForceLock relocks immediately. Used on shutdown.
func (c *Controller) ForceLock() {
	c.setLocked(true)
	c.state = Locked
}

func (c *Controller) State() State { return c.state }

func (c *Controller) setLocked(locked bool) {
	if err := c.actuator.SetLocked(locked); err != nil {
		c.logger.Printf("actuator: %v", err)
	}
}

func (c *Controller) buzzGranted() {
	c.buzzer.Play(1000, 100*time.Millisecond)
	c.buzzer.Play(1500, 150*time.Millisecond)
}

func (c *Controller) buzzDenied() {
	c.buzzer.Play(400, 120*time.Millisecond)
	c.buzzer.Play(400, 120*time.Millisecond)
}
