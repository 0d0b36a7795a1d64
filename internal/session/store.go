// Package session holds the client's credential and tells dependents when it
// changes. Absence or unreadability of the stored credential is always
// treated as "not authenticated", never as a fatal condition.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/fotodrop/schema"
	"pkt.systems/pslog"
)

const credentialFile = "credentials.json"

// Credential is the stored access credential.
type Credential struct {
	Token  schema.Token  `json:"token"`
	UserID schema.UserID `json:"user_id"`
}

// Status reports whether a valid credential is held. IsAuthenticated must not
// be trusted while IsLoading is true.
type Status struct {
	IsAuthenticated bool
	IsLoading       bool
}

// Store persists the credential to disk and fans out change notifications.
type Store struct {
	path string
	log  pslog.Logger

	mu      sync.Mutex
	cred    Credential
	loaded  bool
	subs    map[int]func(Status)
	nextSub int
}

// NewStore constructs a session store rooted at the given state directory.
func NewStore(stateDir string) (*Store, error) {
	return NewStoreWithLogger(stateDir, nil)
}

// NewStoreWithLogger constructs a session store with logging.
func NewStoreWithLogger(stateDir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", stateDir)
	}
	s := &Store{
		path: filepath.Join(stateDir, credentialFile),
		log:  logger,
		subs: make(map[int]func(Status)),
	}
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
	return s, nil
}

// Status returns the current session status.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		IsAuthenticated: s.cred.Token != "",
		IsLoading:       !s.loaded,
	}
}

// Credential returns the stored credential, if any.
func (s *Store) Credential() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred.Token == "" {
		return Credential{}, false
	}
	return s.cred, true
}

// Token returns the bearer token, if any.
func (s *Store) Token() (schema.Token, bool) {
	cred, ok := s.Credential()
	return cred.Token, ok
}

// UserID returns the stored user id, or empty when unauthenticated.
func (s *Store) UserID() schema.UserID {
	cred, _ := s.Credential()
	return cred.UserID
}

// SetCredential persists the credential and notifies subscribers.
func (s *Store) SetCredential(cred Credential) error {
	if cred.Token == "" {
		return s.Clear()
	}
	s.mu.Lock()
	if err := s.writeLocked(cred); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cred = cred
	s.loaded = true
	status, subs := s.snapshotLocked()
	s.mu.Unlock()
	if s.log != nil {
		s.log.Debug("credential set", "user", cred.UserID)
	}
	notify(subs, status)
	return nil
}

// Clear removes the credential and notifies subscribers.
func (s *Store) Clear() error {
	s.mu.Lock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.mu.Unlock()
		return err
	}
	s.cred = Credential{}
	s.loaded = true
	status, subs := s.snapshotLocked()
	s.mu.Unlock()
	if s.log != nil {
		s.log.Debug("credential cleared")
	}
	notify(subs, status)
	return nil
}

// Subscribe registers a change listener and returns its cancel func.
func (s *Store) Subscribe(fn func(Status)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Reload re-reads the credential from disk and notifies subscribers when the
// stored value changed underneath this process.
func (s *Store) Reload() {
	s.mu.Lock()
	before := s.cred
	s.loadLocked()
	changed := s.cred != before
	status, subs := s.snapshotLocked()
	s.mu.Unlock()
	if !changed {
		return
	}
	if s.log != nil {
		s.log.Debug("credential reloaded", "authenticated", status.IsAuthenticated)
	}
	notify(subs, status)
}

// Path returns the credential file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) loadLocked() {
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && s.log != nil {
			s.log.Warn("credential load failed", "err", err)
		}
		s.cred = Credential{}
		return
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		if s.log != nil {
			s.log.Warn("credential unreadable", "err", err)
		}
		s.cred = Credential{}
		return
	}
	s.cred = cred
}

func (s *Store) writeLocked(cred Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "cred-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) snapshotLocked() (Status, []func(Status)) {
	status := Status{
		IsAuthenticated: s.cred.Token != "",
		IsLoading:       !s.loaded,
	}
	subs := make([]func(Status), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return status, subs
}

func notify(subs []func(Status), status Status) {
	for _, fn := range subs {
		fn(status)
	}
}
