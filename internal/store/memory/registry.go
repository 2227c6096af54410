package memory

import (
	"context"
	"sync"

	"doorlatch/internal/store"
)

// Registry is an in-memory cardholder registry for tests and dev
// environments. Records keep insertion order so first-match-wins lookup
// behaves like the file-backed store.
type Registry struct {
	mu   sync.RWMutex
	recs []store.CardholderRecord
}

func NewRegistry(recs ...store.CardholderRecord) *Registry {
	r := &Registry{}
	for _, rec := range recs {
		r.recs = append(r.recs, rec.Canonical())
	}
	return r
}

func (r *Registry) Lookup(_ context.Context, uid string) (store.CardholderRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(uid)
}

func (r *Registry) lookupLocked(uid string) (store.CardholderRecord, bool, error) {
	uid = store.CanonicalUID(uid)
	for _, rec := range r.recs {
		if store.CanonicalUID(rec.UID) == uid {
			return rec, true, nil
		}
	}
	return store.CardholderRecord{}, false, nil
}

func (r *Registry) Append(_ context.Context, rec store.CardholderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec.Canonical())
	return nil
}

func (r *Registry) AppendUnique(_ context.Context, rec store.CardholderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found, err := r.lookupLocked(rec.UID); err != nil {
		return err
	} else if found {
		return store.ErrDuplicate
	}
	r.recs = append(r.recs, rec.Canonical())
	return nil
}

// Len returns the number of stored records. Test-only helper.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recs)
}
