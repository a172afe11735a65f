// Package shell owns the client-side authentication lifecycle: the
// {Initializing, Unauthenticated, Authenticated} state machine, startup
// session verification, login/logout, and what happens when the API
// client reports session invalidation. Commands consult it to gate
// access by authentication and role.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecocollect-dev/ecocollect/internal/api"
	"github.com/ecocollect-dev/ecocollect/internal/notify"
	"github.com/ecocollect-dev/ecocollect/internal/session"
)

// State is the shell's authentication state.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Access errors surfaced by the gates.
var (
	ErrNotAuthenticated = errors.New("not authenticated, run 'ecocollect login' first")
	ErrAdminRequired    = errors.New("admin access required")
)

// Verification retry policy: a transport failure on the startup check
// gets at most one extra attempt after a fixed backoff. A genuine 401
// is definitive and never retried.
const (
	defaultRetryBackoff  = 1 * time.Second
	defaultRedirectDelay = 1500 * time.Millisecond
)

// Config configures a Shell.
type Config struct {
	// BaseURL is the backend root.
	BaseURL string

	// Sessions is the durable session store.
	Sessions session.Store

	// Notifier delivers user-facing messages and owns session-expired
	// suppression.
	Notifier *notify.Notifier

	// Timeout overrides the API client's default request timeout.
	Timeout time.Duration

	// RetryBackoff is the wait between the two startup verification
	// attempts. Defaults to 1s.
	RetryBackoff time.Duration

	// RedirectDelay is how long after a session-expired notice the
	// shell lands in the unauthenticated state. Defaults to 1.5s.
	RedirectDelay time.Duration

	// OnLanding, when set, runs every time the shell arrives at the
	// unauthenticated landing state through invalidation.
	OnLanding func()
}

// Shell is the application shell.
type Shell struct {
	client   *api.Client
	sessions session.Store
	notifier *notify.Notifier

	retryBackoff  time.Duration
	redirectDelay time.Duration
	onLanding     func()

	mu    sync.Mutex
	state State
	user  *api.UserProfile
	// gen counts logins. A delayed invalidation transition aborts when
	// a newer login has happened in the meantime, so a late-arriving
	// stale failure cannot override a fresh session.
	gen uint64
}

// New creates a Shell and the API client wired to it.
func New(cfg Config) (*Shell, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	s := &Shell{
		sessions:      cfg.Sessions,
		notifier:      cfg.Notifier,
		retryBackoff:  cfg.RetryBackoff,
		redirectDelay: cfg.RedirectDelay,
		onLanding:     cfg.OnLanding,
		state:         StateInitializing,
	}
	if s.retryBackoff <= 0 {
		s.retryBackoff = defaultRetryBackoff
	}
	if s.redirectDelay <= 0 {
		s.redirectDelay = defaultRedirectDelay
	}

	client, err := api.New(api.Config{
		BaseURL:       cfg.BaseURL,
		Sessions:      cfg.Sessions,
		Timeout:       cfg.Timeout,
		LandingActive: s.landingActive,
		OnInvalidate:  s.handleInvalidation,
	})
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

// Client returns the API client bound to this shell.
func (s *Shell) Client() *api.Client {
	return s.client
}

// State returns the current authentication state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the in-memory profile, nil unless Authenticated.
func (s *Shell) User() *api.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Shell) landingActive() bool {
	return s.State() == StateUnauthenticated
}

func (s *Shell) setState(state State, user *api.UserProfile) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.mu.Unlock()
}

// VerifySession resolves Initializing into Unauthenticated or
// Authenticated. With no stored token it goes straight to
// Unauthenticated. With one, it asks the backend who the token belongs
// to; a transport failure gets one retry after the backoff. Only a
// definitive 401 removes the stored credentials: a flaky connection
// must not log the user out.
func (s *Shell) VerifySession(ctx context.Context) error {
	token, err := s.sessions.Token()
	if err != nil || token == "" {
		s.setState(StateUnauthenticated, nil)
		return nil
	}

	user, err := s.client.Me(ctx)
	if err != nil && api.IsTransport(err) && !api.IsCanceled(err) {
		select {
		case <-ctx.Done():
			s.setState(StateUnauthenticated, nil)
			return ctx.Err()
		case <-time.After(s.retryBackoff):
		}
		user, err = s.client.Me(ctx)
	}

	if err != nil {
		s.setState(StateUnauthenticated, nil)
		if api.IsUnauthorized(err) {
			if clearErr := s.sessions.Clear(); clearErr != nil {
				return fmt.Errorf("failed to clear invalid session: %w", clearErr)
			}
			return nil
		}
		// Transport failure after retries: leave credentials untouched.
		return fmt.Errorf("failed to verify session: %w", err)
	}

	// Refresh the cached profile; the token is unchanged.
	if setErr := s.sessions.SetSession(token, user); setErr != nil {
		return fmt.Errorf("failed to refresh stored profile: %w", setErr)
	}
	s.setState(StateAuthenticated, user)
	return nil
}

// Login exchanges an identity-provider credential with the backend,
// persists the session, and transitions to Authenticated.
func (s *Shell) Login(ctx context.Context, credential string) (*api.UserProfile, error) {
	resp, err := s.client.Login(ctx, credential)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("backend returned an incomplete session")
	}

	if err := s.sessions.SetSession(resp.Token, resp.User); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = resp.User
	s.gen++
	s.mu.Unlock()

	// A fresh login lifts any pending session-expired suppression.
	s.notifier.Reset()
	return resp.User, nil
}

// Logout calls the logout endpoint best-effort (its failure is
// ignored), clears the stored session, and lands in Unauthenticated.
func (s *Shell) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		s.notifier.Info("Note: server-side logout failed: %s", err)
	}
	if err := s.sessions.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.setState(StateUnauthenticated, nil)
	return nil
}

// handleInvalidation runs after the API client cleared the session
// store in response to a genuine 401. It shows at most one notice per
// cooldown window, then after the redirect delay lands in
// Unauthenticated, unless a newer login happened in between.
func (s *Shell) handleInvalidation() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	s.notifier.SessionExpired()

	time.AfterFunc(s.redirectDelay, func() {
		s.mu.Lock()
		if s.gen != gen {
			// Superseded by a newer login.
			s.mu.Unlock()
			return
		}
		s.state = StateUnauthenticated
		s.user = nil
		s.mu.Unlock()

		if s.onLanding != nil {
			s.onLanding()
		}
	})
}

// RequireAuth verifies the stored session and fails unless the shell
// ends up Authenticated.
func (s *Shell) RequireAuth(ctx context.Context) (*api.UserProfile, error) {
	if err := s.VerifySession(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.user == nil {
		return nil, ErrNotAuthenticated
	}
	return s.user, nil
}

// RequireAdmin is RequireAuth plus the admin role check. The check
// happens before any admin request is made.
func (s *Shell) RequireAdmin(ctx context.Context) (*api.UserProfile, error) {
	user, err := s.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return user, nil
}
