package file

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"doorlatch/internal/store"
)

// Registry is the cardholder registry backed by a flat text file, one
// record per line in the form "UID,Name,Role". The file is append-only
// and re-read in full on every lookup; the intended registry size is a
// few dozen cards, so the linear scan is fine.
type Registry struct {
	path   string
	logger *log.Logger

	// mu serializes all file access. The enrollment portal runs on its
	// own goroutine, so AppendUnique must hold the write lock across its
	// whole check-then-append sequence.
	mu sync.RWMutex
}

func NewRegistry(path string, logger *log.Logger) *Registry {
	return &Registry{path: path, logger: logger}
}

// Lookup scans the file front-to-back and returns the first record whose
// canonical UID matches. A missing or unreadable file means "not found",
// not an error; malformed lines are skipped.
func (r *Registry) Lookup(_ context.Context, uid string) (store.CardholderRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(uid)
}

func (r *Registry) lookupLocked(uid string) (store.CardholderRecord, bool, error) {
	uid = store.CanonicalUID(uid)

	f, err := os.Open(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Printf("registry: open %s: %v", r.path, err)
		}
		return store.CardholderRecord{}, false, nil
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		rec, ok := parseLine(line)
		if !ok {
			continue
		}

		if store.CanonicalUID(rec.UID) == uid {
			return rec, true, nil
		}
	}
	if err := sc.Err(); err != nil {
		r.logger.Printf("registry: read %s: %v", r.path, err)
	}

	return store.CardholderRecord{}, false, nil
}

// parseLine splits a record on the first and last comma, so the name
// field may itself contain commas; UID and role must not. Lines with
// fewer than two commas are malformed and rejected.
func parseLine(line string) (store.CardholderRecord, bool) {
	first := strings.Index(line, ",")
	last := strings.LastIndex(line, ",")
	if first < 0 || first == last {
		return store.CardholderRecord{}, false
	}
	return store.CardholderRecord{
		UID:  line[:first],
		Name: line[first+1 : last],
		Role: line[last+1:],
	}, true
}

// Append writes one canonicalized record at the end of the file, creating
// it if needed. It does not check for an existing record with the same
// UID; callers that need uniqueness use AppendUnique.
func (r *Registry) Append(_ context.Context, rec store.CardholderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(rec)
}

func (r *Registry) appendLocked(rec store.CardholderRecord) error {
	rec = rec.Canonical()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("registry: open %s for append: %w", r.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s,%s,%s\n", rec.UID, rec.Name, rec.Role); err != nil {
		return fmt.Errorf("registry: write %s: %w", r.path, err)
	}
	return nil
}

// AppendUnique appends the record unless a record with the same canonical
// UID already exists, in which case it returns store.ErrDuplicate and the
// file is left untouched. The check and the append happen under one write
// lock.
func (r *Registry) AppendUnique(_ context.Context, rec store.CardholderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found, err := r.lookupLocked(rec.UID); err != nil {
		return err
	} else if found {
		return store.ErrDuplicate
	}
	return r.appendLocked(rec)
}
