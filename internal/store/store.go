package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrDuplicate is returned by Registry.AppendUnique when a record with the
// same canonical UID already exists.
var ErrDuplicate = errors.New("uid already registered")

// CardholderRecord maps a card UID to the person it was issued to.
type CardholderRecord struct {
	UID  string // uppercase colon-separated hex, e.g. "04:A1:B2:C3"
	Name string
	Role string // short code by convention: "A" admin, "U" user
}

// CanonicalUID trims and uppercases a UID. Every comparison and every
// stored UID goes through this first.
func CanonicalUID(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}

// Canonical returns the record as it is stored: UID and role trimmed and
// uppercased, name trimmed but otherwise untouched.
func (r CardholderRecord) Canonical() CardholderRecord {
	return CardholderRecord{
		UID:  CanonicalUID(r.UID),
		Name: strings.TrimSpace(r.Name),
		Role: strings.ToUpper(strings.TrimSpace(r.Role)),
	}
}

// Registry is the persistent cardholder registry.
//
// Append writes without checking for an existing record; AppendUnique
// performs the duplicate check and the append as one atomic step and is
// what the enrollment path uses.
type Registry interface {
	Lookup(ctx context.Context, uid string) (CardholderRecord, bool, error)
	Append(ctx context.Context, rec CardholderRecord) error
	AppendUnique(ctx context.Context, rec CardholderRecord) error
}

// AccessEventRecord captures a single access decision for the audit log.
type AccessEventRecord struct {
	UID        string
	HolderName string // empty when the UID was not in the registry
	Granted    bool
	Reason     string
	DecidedAt  time.Time
}

// AccessEventStore persists access decisions as an append-only audit log.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error
	RecentEvents(ctx context.Context, limit int) ([]AccessEventRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
