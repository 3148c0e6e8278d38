// Package session holds the upstream credentials and current user for
// the whole process. It is created once in main and passed by reference
// to everything that needs it; nothing else touches the token file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yudswin/nettube/internal/models"
)

// ErrNoSession is returned by Tokens when no credentials are stored.
var ErrNoSession = errors.New("no active session")

// Tokens is the access/refresh pair sent as the accesstoken and
// refreshtoken request headers.
type Tokens struct {
	Access  string `json:"accesstoken"`
	Refresh string `json:"refreshtoken"`
}

// Session stores credentials in memory and mirrors them to a JSON file
// so they survive restarts. The zero value is unusable; use New.
type Session struct {
	mu   sync.RWMutex
	path string
	tok  Tokens
	user *models.User
}

// New creates a Session backed by the file at path. If the file exists,
// the stored tokens are loaded; a missing file is not an error.
func New(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &s.tok); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return s, nil
}

// Tokens returns the stored token pair, or ErrNoSession when empty.
func (s *Session) Tokens() (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok.Access == "" && s.tok.Refresh == "" {
		return Tokens{}, ErrNoSession
	}
	return s.tok, nil
}

// Active reports whether credentials are currently stored.
func (s *Session) Active() bool {
	_, err := s.Tokens()
	return err == nil
}

// Set stores a new token pair and persists it.
func (s *Session) Set(tok Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
	return s.persist()
}

// SetUser records the authenticated user for this session.
func (s *Session) SetUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// User returns the authenticated user, or nil when not logged in.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Clear wipes tokens and user from memory and removes the token file.
// Called on logout and whenever the upstream answers 401: after Clear
// no subsequent request can reuse the old credentials.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = Tokens{}
	s.user = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// persist writes the token pair to the session file. Caller holds mu.
func (s *Session) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	data, err := json.Marshal(s.tok)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
