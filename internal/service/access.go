package service

import (
	"context"
	"log"
	"time"

	"doorlatch/internal/store"
)

// Decision reasons recorded in the audit log.
const (
	ReasonGranted    = "granted"
	ReasonUnknownUID = "unknown_uid"
)

// Decision is the outcome of a single scanned identifier.
type Decision struct {
	UID     string
	Granted bool
	Name    string
	Role    string
	Reason  string
}

// AccessService answers "should this UID open the door" from the
// cardholder registry and records every decision in the audit log.
type AccessService struct {
	registry store.Registry
	events   store.AccessEventStore
	logger   *log.Logger
}

func NewAccessService(reg store.Registry, es store.AccessEventStore, logger *log.Logger) *AccessService {
	return &AccessService{registry: reg, events: es, logger: logger}
}

// Decide looks the UID up in the registry. A lookup error counts as a
// denial: without a readable registry nobody gets in.
func (s *AccessService) Decide(ctx context.Context, uid string) Decision {
	now := time.Now().UTC()
	uid = store.CanonicalUID(uid)

	rec, found, err := s.registry.Lookup(ctx, uid)
	if err != nil {
		s.logger.Printf("access: lookup %s: %v", uid, err)
		found = false
	}

	dec := Decision{UID: uid, Reason: ReasonUnknownUID}
	if found {
		dec.Granted = true
		dec.Name = rec.Name
		dec.Role = rec.Role
		dec.Reason = ReasonGranted
	}

	s.recordEvent(ctx, dec, now)
	return dec
}

// recordEvent persists the decision to the audit log. A failed audit
// write must not hold up the person at the door, so the error is logged
// and dropped.
func (s *AccessService) recordEvent(ctx context.Context, dec Decision, decidedAt time.Time) {
	err := s.events.RecordEvent(ctx, store.AccessEventRecord{
		UID:        dec.UID,
		HolderName: dec.Name,
		Granted:    dec.Granted,
		Reason:     dec.Reason,
		DecidedAt:  decidedAt,
	})
	if err != nil {
		s.logger.Printf("access: record event: %v", err)
	}
}
