// Package scan turns the RFID reader driver into a polling producer of
// normalized card identifiers.
package scan

import (
	"fmt"
	"strings"
	"sync"
)

// Driver is the narrow contract with the reader hardware.
type Driver interface {
	// CardPresent reports whether a new card has entered the field.
	CardPresent() bool

	// ReadSerial reads the detected card's serial number.
	ReadSerial() ([]byte, bool)

	// Halt performs the post-read teardown. It must be called exactly
	// once per successful read; until then the driver will not report
	// this or any other card again.
	Halt()
}

// Source polls the driver and renders serials as canonical UIDs.
type Source struct {
	drv Driver
}

func NewSource(drv Driver) *Source {
	return &Source{drv: drv}
}

// Poll queries the driver once, without blocking. On a detection it
// returns the formatted UID and halts the card so the next Poll can
// observe a fresh one. Returns ("", false) when no card is present.
func (s *Source) Poll() (string, bool) {
	if !s.drv.CardPresent() {
		return "", false
	}

	serial, ok := s.drv.ReadSerial()
	if !ok || len(serial) == 0 {
		return "", false
	}

	uid := FormatUID(serial)
	s.drv.Halt()
	return uid, true
}

// FormatUID renders a card serial as uppercase colon-separated hex,
// zero-padding each byte to two digits, e.g. "04:A1:B2:C3".
func FormatUID(serial []byte) string {
	parts := make([]string, len(serial))
	for i, b := range serial {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

// LastUID holds the most recently observed identifier. The control loop
// writes it; the portal's /getuid handler reads it, so access is guarded.
type LastUID struct {
	mu  sync.RWMutex
	uid string
}

func (l *LastUID) Set(uid string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uid = uid
}

// Get returns the last observed UID, or "" if nothing has been scanned.
func (l *LastUID) Get() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.uid
}

// NullDriver never detects a card. It stands in for the reader in dev
// mode so the portal can be exercised without hardware.
type NullDriver struct{}

func (NullDriver) CardPresent() bool          { return false }
func (NullDriver) ReadSerial() ([]byte, bool) { return nil, false }
func (NullDriver) Halt()                      {}
