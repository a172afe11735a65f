// Package session is the single source of truth for the current
// authentication token and cached user profile. Everything else goes
// through the Store interface; nothing reads the underlying storage
// directly, so the persistence mechanism (OS keyring, plain file,
// in-memory for tests) is swappable.
package session

import (
	"errors"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

// ErrNoSession is returned by Token and User when no session is stored.
var ErrNoSession = errors.New("not authenticated, run 'ecocollect login' first")

// Canonical storage key for the session token. Older installations
// drifted between "sessionToken" and "session_token"; exactly one
// name is used everywhere now.
const TokenKey = "session_token"

// Store holds the bearer token and cached profile in storage that
// survives restarts. All operations are synchronous and make no
// network calls.
//
// SetSession persists token and profile as a logical unit: if either
// part fails to persist, the store is left unchanged. Clear is
// idempotent; clearing an empty store is a no-op.
type Store interface {
	Token() (string, error)
	User() (*api.UserProfile, error)
	SetSession(token string, user *api.UserProfile) error
	Clear() error
}
