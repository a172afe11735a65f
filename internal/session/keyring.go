package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

const (
	keyringService  = "ecocollect-cli"
	profileFileName = "profile.json"
)

// KeyringStore keeps the session token in the OS keychain/credential
// manager and the cached profile next to the CLI config. Preferred
// backend when a keyring is available.
type KeyringStore struct {
	profilePath string
}

// NewKeyringStore creates a keyring-backed store whose profile cache
// lives under dir.
func NewKeyringStore(dir string) *KeyringStore {
	return &KeyringStore{profilePath: filepath.Join(dir, profileFileName)}
}

// Token retrieves the session token from the OS keyring.
func (s *KeyringStore) Token() (string, error) {
	token, err := keyring.Get(keyringService, TokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// User returns the cached profile.
func (s *KeyringStore) User() (*api.UserProfile, error) {
	data, err := os.ReadFile(s.profilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var user api.UserProfile
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &user, nil
}

// SetSession stores the token in the keyring and the profile on disk.
// The profile is written first and the keyring entry rolled back on a
// profile failure, so the pair persists as a logical unit: no token
// without a profile and vice versa.
func (s *KeyringStore) SetSession(token string, user *api.UserProfile) error {
	if token == "" {
		return fmt.Errorf("session token is empty")
	}

	prevToken, prevErr := s.Token()

	if err := keyring.Set(keyringService, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if err := s.writeProfile(user); err != nil {
		// Roll the keyring back to its previous state.
		if prevErr == nil {
			_ = keyring.Set(keyringService, TokenKey, prevToken)
		} else {
			_ = keyring.Delete(keyringService, TokenKey)
		}
		return err
	}
	return nil
}

func (s *KeyringStore) writeProfile(user *api.UserProfile) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	dir := filepath.Dir(s.profilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.profilePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// Clear removes token and profile. Idempotent.
func (s *KeyringStore) Clear() error {
	if err := keyring.Delete(keyringService, TokenKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if err := os.Remove(s.profilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	return nil
}

// Open returns the best available store rooted at dir: the OS keyring
// when it responds, otherwise the plain file store.
func Open(dir string) Store {
	_, err := keyring.Get(keyringService, TokenKey)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return NewKeyringStore(dir)
	}
	return NewFileStore(dir)
}
