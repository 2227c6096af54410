package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"doorlatch/internal/scan"
	"doorlatch/internal/store"
)

var (
	ErrInvalidUID   = errors.New("uid is required")
	ErrDuplicateUID = errors.New("uid already exists")
)

// RegistrationService handles enrollment from the portal: duplicate-safe
// appends to the registry, plus the last-observed-UID report that
// prefills the form.
type RegistrationService struct {
	registry store.Registry
	last     *scan.LastUID
	logger   *log.Logger
}

func NewRegistrationService(reg store.Registry, last *scan.LastUID, logger *log.Logger) *RegistrationService {
	return &RegistrationService{registry: reg, last: last, logger: logger}
}

// Register adds a new cardholder. Returns ErrInvalidUID for an empty UID
// and ErrDuplicateUID when the UID is already registered (nothing is
// written); any other error is a storage failure.
func (s *RegistrationService) Register(ctx context.Context, uid, name, role string) error {
	if strings.TrimSpace(uid) == "" {
		return ErrInvalidUID
	}

	rec := store.CardholderRecord{UID: uid, Name: name, Role: role}
	if err := s.registry.AppendUnique(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateUID
		}
		return fmt.Errorf("register %s: %w", store.CanonicalUID(uid), err)
	}

	rec = rec.Canonical()
	s.logger.Printf("registered uid=%s name=%q role=%s", rec.UID, rec.Name, rec.Role)
	return nil
}

// LastObserved returns the most recently scanned UID, or "" if nothing
// has been scanned yet.
func (s *RegistrationService) LastObserved() string {
	return s.last.Get()
}
