package door_test

import (
	"io"
	"log"
	"testing"
	"time"

	"doorlatch/internal/door"
)

type fakeActuator struct {
	locked bool
	calls  []bool
}

func (a *fakeActuator) SetLocked(locked bool) error {
	a.locked = locked
	a.calls = append(a.calls, locked)
	return nil
}

type tone struct {
	freqHz int
	d      time.Duration
}

type fakeBuzzer struct {
	tones []tone
}

func (b *fakeBuzzer) Play(freqHz int, d time.Duration) {
	b.tones = append(b.tones, tone{freqHz, d})
}

func newTestController(t *testing.T) (*door.Controller, *fakeActuator, *fakeBuzzer) {
	t.Helper()
	act := &fakeActuator{}
	buz := &fakeBuzzer{}
	c := door.NewController(act, buz, log.New(io.Discard, "", 0))
	return c, act, buz
}

func TestController_BootsLocked(t *testing.T) {
	c, act, _ := newTestController(t)

	if c.State() != door.Locked {
		t.Errorf("expected Locked at boot, got %v", c.State())
	}
	if len(act.calls) != 1 || !act.calls[0] {
		t.Errorf("expected one initial lock assertion, got %v", act.calls)
	}
}

func TestController_Grant_UnlocksAndBuzzes(t *testing.T) {
	c, act, buz := newTestController(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	c.HandleDecision(true, now)

	if c.State() != door.Unlocked {
		t.Errorf("expected Unlocked, got %v", c.State())
	}
	if act.locked {
		t.Error("expected actuator in unlocked position")
	}

	want := []tone{{1000, 100 * time.Millisecond}, {1500, 150 * time.Millisecond}}
	if len(buz.tones) != 2 || buz.tones[0] != want[0] || buz.tones[1] != want[1] {
		t.Errorf("expected ascending grant pattern %v, got %v", want, buz.tones)
	}
}

func TestController_Deny_StaysLockedAndBuzzes(t *testing.T) {
	c, act, buz := newTestController(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	c.HandleDecision(false, now)

	if c.State() != door.Locked {
		t.Errorf("expected Locked, got %v", c.State())
	}
	if !act.locked {
		t.Error("expected actuator re-asserted locked")
	}
	// Defensive re-assert: boot lock plus denial lock.
	if len(act.calls) != 2 {
		t.Errorf("expected 2 lock assertions, got %d", len(act.calls))
	}

	want := tone{400, 120 * time.Millisecond}
	if len(buz.tones) != 2 || buz.tones[0] != want || buz.tones[1] != want {
		t.Errorf("expected two low denial tones, got %v", buz.tones)
	}
}

func TestController_Tick_RelocksAfterWindow(t *testing.T) {
	c, act, _ := newTestController(t)
	t0 := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	c.HandleDecision(true, t0)

	// Still unlocked strictly inside the window.
	for _, dt := range []time.Duration{0, time.Second, door.UnlockWindow - time.Millisecond} {
		c.Tick(t0.Add(dt))
		if c.State() != door.Unlocked {
			t.Fatalf("expected Unlocked at t0+%s", dt)
		}
	}

	// First tick at or past the boundary relocks.
	c.Tick(t0.Add(door.UnlockWindow))
	if c.State() != door.Locked {
		t.Error("expected Locked at window boundary")
	}
	if !act.locked {
		t.Error("expected actuator deasserted to locked")
	}
}

func TestController_Tick_WhileLocked_NoOp(t *testing.T) {
	c, act, _ := newTestController(t)

	c.Tick(time.Now())
	if len(act.calls) != 1 {
		t.Errorf("tick while locked must not touch the actuator, got %v", act.calls)
	}
}

func TestController_Regrant_RestartsWindow(t *testing.T) {
	c, _, _ := newTestController(t)
	t0 := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	c.HandleDecision(true, t0)

	// Re-scan 5 s in; the window restarts from there.
	t1 := t0.Add(5 * time.Second)
	c.HandleDecision(true, t1)

	c.Tick(t0.Add(door.UnlockWindow))
	if c.State() != door.Unlocked {
		t.Error("expected still Unlocked: re-grant restarted the window")
	}

	c.Tick(t1.Add(door.UnlockWindow))
	if c.State() != door.Locked {
		t.Error("expected Locked once the restarted window elapsed")
	}
}

func TestController_ForceLock(t *testing.T) {
	c, act, _ := newTestController(t)

	c.HandleDecision(true, time.Now())
	c.ForceLock()

	if c.State() != door.Locked {
		t.Errorf("expected Locked after ForceLock, got %v", c.State())
	}
	if !act.locked {
		t.Error("expected actuator locked after ForceLock")
	}
}
