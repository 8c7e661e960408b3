// Package store holds the per-session registration state for the signup wizard.
//
// Each signup session owns one Store. The in-memory record is authoritative
// for the lifetime of the session; redis persistence is best-effort and a
// failed write never fails the step that caused it. The password and the
// temporary verification token live in an ephemeral section that is never
// persisted.
package store

import (
	"context"
	"log"
	"sync"

	"github.com/referralpro/funnel/models"
	"github.com/referralpro/funnel/repository"
	"github.com/referralpro/funnel/utils"
)

// Store is the mutable signup state of a single session. All methods are
// safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	sessionID string
	record    models.RegistrationRecord
	repo      repository.RegistrationStateRepository

	// ephemeral section, never persisted
	password   string
	tempToken  string
	submitting bool
	hydrated   bool
}

// New creates a store for a signup session. The record starts at defaults;
// call Hydrate to pick up previously persisted state.
func New(sessionID string, repo repository.RegistrationStateRepository) *Store {
	return &Store{
		sessionID: sessionID,
		record:    models.DefaultRegistrationRecord(),
		repo:      repo,
	}
}

// SessionID returns the owning signup session id.
func (s *Store) SessionID() string {
	return s.sessionID
}

// StartSignup activates the signup scope and persists the initial record.
// Scope activation must succeed; without it no later step would persist.
func (s *Store) StartSignup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ActivateScope(ctx, s.sessionID, utils.SignupSessionTTL); err != nil {
		return err
	}
	s.record = models.DefaultRegistrationRecord()
	s.hydrated = true
	s.persistLocked(ctx)
	return nil
}

// EnsureHydrated hydrates the record from durable state exactly once per
// store lifetime, so a freshly created store picks up a persisted session
// after a restart without clobbering later in-memory writes.
func (s *Store) EnsureHydrated(ctx context.Context) {
	s.mu.Lock()
	hydrated := s.hydrated
	s.hydrated = true
	s.mu.Unlock()
	if !hydrated {
		s.Hydrate(ctx)
	}
}

// Hydrate loads the persisted record into memory. With the scope inactive or
// the blob absent the record stays at its current in-memory state.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.repo.ScopeActive(ctx, s.sessionID)
	if err != nil {
		log.Printf("signup store: scope check failed for session %s: %v", s.sessionID, err)
		return
	}
	if !active {
		return
	}
	record, err := s.repo.LoadRecord(ctx, s.sessionID)
	if err != nil {
		log.Printf("signup store: hydrate failed for session %s: %v", s.sessionID, err)
		return
	}
	if record != nil {
		s.record = *record
	}
}

// Record returns a snapshot copy of the current record.
func (s *Store) Record() models.RegistrationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// UpdateRecord applies a merge to the record under the store lock and then
// persists the result while the scope is active. A persist failure is logged
// and swallowed; the in-memory record remains authoritative.
func (s *Store) UpdateRecord(ctx context.Context, merge func(*models.RegistrationRecord)) models.RegistrationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	merge(&s.record)
	s.persistLocked(ctx)
	return s.record
}

// persistLocked writes the record blob if the signup scope is active.
// Callers must hold s.mu.
func (s *Store) persistLocked(ctx context.Context) {
	active, err := s.repo.ScopeActive(ctx, s.sessionID)
	if err != nil {
		log.Printf("signup store: scope check failed for session %s: %v", s.sessionID, err)
		return
	}
	if !active {
		return
	}
	record := s.record
	if err := s.repo.SaveRecord(ctx, s.sessionID, &record, utils.RegistrationRecordTTL); err != nil {
		log.Printf("signup store: persist failed for session %s: %v", s.sessionID, err)
	}
}

// SetPassword stores the password in the ephemeral section.
func (s *Store) SetPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = password
}

// Password returns the ephemeral password.
func (s *Store) Password() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password
}

// SetTempToken stores the upstream verification token in the ephemeral section.
func (s *Store) SetTempToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempToken = token
}

// TempToken returns the ephemeral verification token.
func (s *Store) TempToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempToken
}

// TryBeginSubmission marks a submission in flight. It returns false when one
// is already running, so duplicate completes are rejected.
func (s *Store) TryBeginSubmission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return false
	}
	s.submitting = true
	return true
}

// EndSubmission clears the in-flight submission mark.
func (s *Store) EndSubmission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
}

// FinishSignup tears the signup scope down. With clear set the persisted
// blob is deleted and the in-memory record resets to defaults; otherwise the
// record survives in memory and in redis until its TTL. Ephemerals are wiped
// either way. Teardown failures are logged and swallowed: the session is
// over regardless.
func (s *Store) FinishSignup(ctx context.Context, clear bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeactivateScope(ctx, s.sessionID); err != nil {
		log.Printf("signup store: scope teardown failed for session %s: %v", s.sessionID, err)
	}
	if clear {
		if err := s.repo.DeleteRecord(ctx, s.sessionID); err != nil {
			log.Printf("signup store: record delete failed for session %s: %v", s.sessionID, err)
		}
		s.record = models.DefaultRegistrationRecord()
	}
	s.password = ""
	s.tempToken = ""
}
