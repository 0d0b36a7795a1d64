// Package intent records a single action the user committed to before
// authentication existed, so it can be resumed once login completes. The
// slot holds at most one intent; a new one overwrites any prior one.
package intent

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/fotodrop/schema"
	"pkt.systems/pslog"
)

const intentFile = "pending_subscription"

// Store is a durable single-slot deferred intent record.
type Store struct {
	path string
	log  pslog.Logger
	mu   sync.Mutex
}

// NewStore constructs an intent store rooted at the given state directory.
func NewStore(stateDir string) (*Store, error) {
	return NewStoreWithLogger(stateDir, nil)
}

// NewStoreWithLogger constructs an intent store with logging.
func NewStoreWithLogger(stateDir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, err
	}
	return &Store{
		path: filepath.Join(stateDir, intentFile),
		log:  logger,
	}, nil
}

// Park records the subscribe intent, overwriting any existing one.
func (s *Store) Park(eventID schema.EventID) error {
	if eventID == "" {
		return schema.ErrNoEventID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path, []byte(eventID), 0o600); err != nil {
		if s.log != nil {
			s.log.Warn("intent park failed", "event", eventID, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Debug("intent parked", "event", eventID)
	}
	return nil
}

// Take returns and clears the parked intent in one atomic step. A second
// caller can never observe the same intent.
func (s *Store) Take() (schema.EventID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && s.log != nil {
			s.log.Warn("intent read failed", "err", err)
		}
		return "", false
	}
	if err := os.Remove(s.path); err != nil && s.log != nil {
		s.log.Warn("intent clear failed", "err", err)
	}
	eventID := schema.EventID(strings.TrimSpace(string(data)))
	if eventID == "" {
		return "", false
	}
	if s.log != nil {
		s.log.Debug("intent taken", "event", eventID)
	}
	return eventID, true
}

// Peek reports the parked intent without consuming it.
func (s *Store) Peek() (schema.EventID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	eventID := schema.EventID(strings.TrimSpace(string(data)))
	return eventID, eventID != ""
}
