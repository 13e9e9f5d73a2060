// Package session keeps the logged-in user and their tokens between CLI runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tikalinvest/internal/client"
)

// state is the on-disk layout of the session file
type state struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *client.User `json:"user,omitempty"`
}

// FileStore persists the session as a JSON file readable only by its owner
type FileStore struct {
	path string

	mu    sync.RWMutex
	state state
}

// DefaultPath is ~/.tikal/session.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".tikal", "session.json"), nil
}

// Open loads the session at path. A missing file is an empty session.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

// Path is where the session is saved
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken, s.state.RefreshToken
}

func (s *FileStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AccessToken, s.state.RefreshToken = access, refresh
	return s.save()
}

// Clear forgets the tokens and the user
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state{}
	return s.save()
}

// User returns the cached user, or nil
func (s *FileStore) User() *client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// SetUser caches user. nil forgets it and keeps the tokens.
func (s *FileStore) SetUser(user *client.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = user
	return s.save()
}

// SetSession replaces tokens and user in one write
func (s *FileStore) SetSession(access, refresh string, user *client.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state{AccessToken: access, RefreshToken: refresh, User: user}
	return s.save()
}

// save writes through a temp file and a rename. Callers hold mu.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
