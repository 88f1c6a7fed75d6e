// Package state persists per-user client state: the bearer token and the
// preferred UI language. Each value lives in its own small file under the
// base dir so it survives process restarts.
package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tokenFile    = "token"
	languageFile = "language"
)

// Store is the durable client-side key store. It is the single shared
// mutable resource between the session manager (writer) and the HTTP
// client (reader), so access is guarded for callers living on different
// goroutines (TUI commands, web handlers).
type Store struct {
	mu    sync.RWMutex
	dir   string
	token string
	lang  string
}

// Open loads existing state from baseDir, creating the directory if needed.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	s := &Store{dir: baseDir}

	tok, err := readValue(filepath.Join(baseDir, tokenFile))
	if err != nil {
		return nil, err
	}
	s.token = tok

	lang, err := readValue(filepath.Join(baseDir, languageFile))
	if err != nil {
		return nil, err
	}
	s.lang = lang

	return s, nil
}

// Token returns the persisted bearer token, if any. Satisfies api.TokenSource.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SetToken persists the bearer token before returning, so any request
// issued afterwards observes it.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeValue(filepath.Join(s.dir, tokenFile), token, 0600); err != nil {
		return err
	}
	s.token = token
	return nil
}

// ClearToken removes the persisted token. Clearing an absent token is a no-op.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.dir, tokenFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.token = ""
	return nil
}

// Language returns the persisted UI language code, if any.
func (s *Store) Language() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang, s.lang != ""
}

// SetLanguage persists the preferred UI language code.
func (s *Store) SetLanguage(lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeValue(filepath.Join(s.dir, languageFile), lang, 0644); err != nil {
		return err
	}
	s.lang = lang
	return nil
}

func readValue(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeValue(path, value string, perm os.FileMode) error {
	return os.WriteFile(path, []byte(value+"\n"), perm)
}
