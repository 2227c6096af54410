// Package control drives the device: one polling loop that ticks the
// door timer, polls the reader, and turns scans into lock actuation.
package control

import (
	"context"
	"log"
	"time"

	"doorlatch/internal/door"
	"doorlatch/internal/scan"
	"doorlatch/internal/service"
)

// PollInterval bounds scan responsiveness: the reader is queried and the
// unlock timer evaluated once per interval.
const PollInterval = 200 * time.Millisecond

type Loop struct {
	source *scan.Source
	access *service.AccessService
	door   *door.Controller
	last   *scan.LastUID
	logger *log.Logger

	interval time.Duration
}

func NewLoop(
	source *scan.Source,
	access *service.AccessService,
	doorCtrl *door.Controller,
	last *scan.LastUID,
	logger *log.Logger,
) *Loop {
	return &Loop{
		source:   source,
		access:   access,
		door:     doorCtrl,
		last:     last,
		logger:   logger,
		interval: PollInterval,
	}
}

// Run executes the control cycle until ctx is cancelled, then relocks the
// door on the way out.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.door.ForceLock()
			l.logger.Printf("control loop stopped, door locked")
			return
		case <-ticker.C:
			l.Step(ctx, time.Now())
		}
	}
}

// Step runs one iteration of the control cycle: evaluate the unlock
// timer, poll for a card, and on a detection publish the UID, decide, and
// actuate. Tone feedback inside HandleDecision blocks the iteration for
// the pattern's duration.
func (l *Loop) Step(ctx context.Context, now time.Time) {
	l.door.Tick(now)

	uid, ok := l.source.Poll()
	if !ok {
		return
	}

	l.last.Set(uid)
	l.logger.Printf("scanned uid=%s", uid)

	dec := l.access.Decide(ctx, uid)
	if dec.Granted {
		l.logger.Printf("access granted to %s (%s)", dec.Name, dec.Role)
	} else {
		l.logger.Printf("access denied for %s", uid)
	}

	l.door.HandleDecision(dec.Granted, now)
}
