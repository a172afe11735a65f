package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

const sessionFileName = "session.json"

// sessionFile is the on-disk document. Token and profile live in one
// file so a single atomic rename persists or replaces both together.
type sessionFile struct {
	Token string           `json:"session_token"`
	User  *api.UserProfile `json:"user,omitempty"`
}

// FileStore persists the session as a single JSON file in the user's
// config directory. It is the fallback when the OS keyring is not
// available (headless machines, CI).
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, sessionFileName)}
}

func (s *FileStore) load() (*sessionFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if sf.Token == "" {
		return nil, ErrNoSession
	}
	return &sf, nil
}

// Token returns the stored session token.
func (s *FileStore) Token() (string, error) {
	sf, err := s.load()
	if err != nil {
		return "", err
	}
	return sf.Token, nil
}

// User returns the cached profile.
func (s *FileStore) User() (*api.UserProfile, error) {
	sf, err := s.load()
	if err != nil {
		return nil, err
	}
	if sf.User == nil {
		return nil, ErrNoSession
	}
	return sf.User, nil
}

// SetSession writes token and profile together. A temp file plus
// rename keeps the operation atomic: a failure at any point leaves the
// previous session intact.
func (s *FileStore) SetSession(token string, user *api.UserProfile) error {
	if token == "" {
		return fmt.Errorf("session token is empty")
	}

	data, err := json.MarshalIndent(sessionFile{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, sessionFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to persist session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty store is a no-op.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
