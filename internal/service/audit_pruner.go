package service

import (
	"context"
	"log"
	"time"

	"doorlatch/internal/store"
)

// AuditPruner periodically deletes audit events older than a configurable
// retention period. It runs as a background goroutine and is safe to stop
// via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type AuditPruner struct {
	events    store.AccessEventStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewAuditPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of audit history to keep.
	// 0 means keep everything (the pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 24.
	IntervalHours int
}

// NewAuditPruner creates a pruner but does not start it. Call Start to
// begin the background loop.
func NewAuditPruner(es store.AccessEventStore, cfg PrunerConfig, logger *log.Logger) *AuditPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &AuditPruner{
		events:    es,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop: an immediate prune, then one
// per interval. The loop exits when ctx is cancelled or Stop is called.
func (p *AuditPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("audit pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("audit pruner started (retention=%dd, interval=%dh)",
		int(p.retention.Hours()/24), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *AuditPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *AuditPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *AuditPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.events.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Printf("audit prune error: %v", err)
		return
	}
	if deleted > 0 {
		p.logger.Printf("audit prune: deleted %d events older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
