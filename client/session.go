// Package client implements the client side of the authentication flow: a
// durable session store pairing the bearer token with the identity it
// represents, and an HTTP client that drives signup/signin against the API.
package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rishimanjunath15/acquisitions/core"
)

// Storage keys, kept as individual files under the state directory.
const (
	tokenKey = "authToken"
	userKey  = "currentUser"
)

// SessionStore caches the current token and user identity in memory and
// persists both to the state directory. Token and user are always set or
// cleared together; a partial pair on disk reads back as "not authenticated".
// All methods are safe for concurrent use, and writes are serialized so the
// last one wins without mixing the pair.
type SessionStore struct {
	dir string

	mu    sync.Mutex
	token string
	user  *core.User
}

// NewSessionStore opens (creating if needed) the state directory and
// rehydrates any stored session. Stored values are untrusted input: anything
// missing or corrupt degrades to an empty session, never an error.
func NewSessionStore(dir string) (*SessionStore, error) {
	if dir == "" {
		return nil, errors.New("empty session dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	s := &SessionStore{dir: dir}
	s.rehydrate()
	return s, nil
}

func (s *SessionStore) rehydrate() {
	tokenBytes, err := os.ReadFile(s.tokenPath())
	if err != nil || len(tokenBytes) == 0 {
		return
	}
	userBytes, err := os.ReadFile(s.userPath())
	if err != nil {
		return
	}
	var user core.User
	if err := json.Unmarshal(userBytes, &user); err != nil {
		return
	}
	if user.ID == "" || user.Email == "" {
		return
	}
	s.token = string(tokenBytes)
	s.user = &user
}

// SetAuth persists token and user together and updates in-memory state. If
// persisting either half fails, both halves are discarded (on disk and in
// memory) so no partial pair can ever be observed.
func (s *SessionStore) SetAuth(token string, user core.User) error {
	if token == "" || user.ID == "" {
		return errors.New("refusing to store partial auth state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userBytes, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.userPath(), userBytes); err != nil {
		s.wipeLocked()
		return err
	}
	if err := writeFileAtomic(s.tokenPath(), []byte(token)); err != nil {
		s.wipeLocked()
		return err
	}

	s.token = token
	u := user
	s.user = &u
	return nil
}

// ClearAuth removes both values. Calling it on an empty store is a no-op.
func (s *SessionStore) ClearAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
}

func (s *SessionStore) wipeLocked() {
	removeIfExists(s.tokenPath())
	removeIfExists(s.userPath())
	s.token = ""
	s.user = nil
}

// IsAuthenticated is true iff both token and user are present.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// Token returns the cached token string ("" when unauthenticated).
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the cached identity, or nil when unauthenticated.
func (s *SessionStore) User() *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// AuthHeaders builds the header set for outbound authenticated requests.
// Callers must not invoke it when IsAuthenticated() is false.
func (s *SessionStore) AuthHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + s.Token(),
	}
}

func (s *SessionStore) tokenPath() string { return filepath.Join(s.dir, tokenKey) }
func (s *SessionStore) userPath() string  { return filepath.Join(s.dir, userKey) }

// writeFileAtomic writes via a temp file and rename so readers never observe a
// half-written value.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// removeIfExists removes path best-effort; a stale leftover is tolerable since
// rehydrate treats a partial pair as unauthenticated.
func removeIfExists(path string) {
	_ = os.Remove(path)
}
