package shell

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecocollect-dev/ecocollect/internal/api"
	"github.com/ecocollect-dev/ecocollect/internal/notify"
	"github.com/ecocollect-dev/ecocollect/internal/session"
)

func testProfile(role string) *api.UserProfile {
	return &api.UserProfile{
		ID:    "u1",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestShell(t *testing.T, baseURL string, store session.Store) *Shell {
	t.Helper()

	sh, err := New(Config{
		BaseURL:       baseURL,
		Sessions:      store,
		Notifier:      notify.New(io.Discard, 20*time.Millisecond),
		RetryBackoff:  10 * time.Millisecond,
		RedirectDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create shell: %v", err)
	}
	return sh
}

func TestVerifySessionWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a stored token")
	}))
	defer server.Close()

	sh := newTestShell(t, server.URL, session.NewMemStore())

	if err := sh.VerifySession(context.Background()); err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}
	if sh.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", sh.State())
	}
}

func TestVerifySessionSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "bad token"})
			return
		}
		writeJSON(w, http.StatusOK, testProfile(api.RoleUser))
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh := newTestShell(t, server.URL, store)

	if err := sh.VerifySession(context.Background()); err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}
	if sh.State() != StateAuthenticated {
		t.Errorf("expected authenticated, got %s", sh.State())
	}
	if user := sh.User(); user == nil || user.Email != "test@example.com" {
		t.Errorf("expected cached profile, got %+v", user)
	}
}

func TestVerifySessionUnauthorizedClearsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid or expired token"})
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("stale-token", testProfile(api.RoleUser))
	sh := newTestShell(t, server.URL, store)

	if err := sh.VerifySession(context.Background()); err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}
	if sh.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", sh.State())
	}
	if _, err := store.Token(); err == nil {
		t.Error("expected credentials to be cleared after a definitive 401")
	}
}

func TestVerifySessionRetriesTransportFailureOnce(t *testing.T) {
	var calls int32
	listener := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Drop the first connection mid-request
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server does not support hijacking")
				return
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		writeJSON(w, http.StatusOK, testProfile(api.RoleUser))
	}))
	defer listener.Close()

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh := newTestShell(t, listener.URL, store)

	if err := sh.VerifySession(context.Background()); err != nil {
		t.Fatalf("VerifySession failed after retry: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
	if sh.State() != StateAuthenticated {
		t.Errorf("expected authenticated after successful retry, got %s", sh.State())
	}
}

func TestVerifySessionTransportFailureKeepsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh := newTestShell(t, server.URL, store)

	if err := sh.VerifySession(context.Background()); err == nil {
		t.Fatal("expected an error when the backend is unreachable")
	}
	if sh.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", sh.State())
	}
	// The token survives: a flaky connection must not log the user out
	if token, err := store.Token(); err != nil || token != "tok-123" {
		t.Errorf("expected credentials kept, got %q (%v)", token, err)
	}
}

func TestVerifySessionDoesNotRetryUnauthorized(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "bad token"})
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh := newTestShell(t, server.URL, store)

	if err := sh.VerifySession(context.Background()); err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("a definitive 401 must not be retried, got %d attempts", got)
	}
}

func TestLoginPersistsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"session_token": "tok-fresh",
			"user":          testProfile(api.RoleUser),
		})
	}))
	defer server.Close()

	store := session.NewMemStore()
	sh := newTestShell(t, server.URL, store)

	user, err := sh.Login(context.Background(), "credential")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != "test@example.com" {
		t.Errorf("unexpected profile: %+v", user)
	}
	if sh.State() != StateAuthenticated {
		t.Errorf("expected authenticated, got %s", sh.State())
	}
	if token, err := store.Token(); err != nil || token != "tok-fresh" {
		t.Errorf("expected persisted token, got %q (%v)", token, err)
	}
}

func TestInvalidationLandsUnauthenticated(t *testing.T) {
	landed := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh, err := New(Config{
		BaseURL:       server.URL,
		Sessions:      store,
		Notifier:      notify.New(io.Discard, 20*time.Millisecond),
		RetryBackoff:  10 * time.Millisecond,
		RedirectDelay: 10 * time.Millisecond,
		OnLanding:     func() { landed <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("failed to create shell: %v", err)
	}
	sh.setState(StateAuthenticated, testProfile(api.RoleUser))

	// Any authenticated call now fails with a genuine 401
	if _, err := sh.Client().ListBookings(context.Background()); !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	select {
	case <-landed:
	case <-time.After(time.Second):
		t.Fatal("shell never landed after invalidation")
	}
	if sh.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated after invalidation, got %s", sh.State())
	}
	if _, err := store.Token(); err == nil {
		t.Error("expected the session store to be cleared")
	}
}

func TestFreshLoginSupersedesPendingInvalidation(t *testing.T) {
	var unauthorized atomic.Bool
	unauthorized.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/google" {
			writeJSON(w, http.StatusOK, map[string]any{
				"session_token": "tok-fresh",
				"user":          testProfile(api.RoleUser),
			})
			return
		}
		if unauthorized.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, testProfile(api.RoleUser))
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("tok-old", testProfile(api.RoleUser))
	sh, err := New(Config{
		BaseURL:       server.URL,
		Sessions:      store,
		Notifier:      notify.New(io.Discard, 20*time.Millisecond),
		RetryBackoff:  10 * time.Millisecond,
		RedirectDelay: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create shell: %v", err)
	}
	sh.setState(StateAuthenticated, testProfile(api.RoleUser))

	// Trigger invalidation; its landing transition is still pending
	if _, err := sh.Client().ListBookings(context.Background()); !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// A fresh login before the redirect delay elapses
	unauthorized.Store(false)
	if _, err := sh.Login(context.Background(), "credential"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if sh.State() != StateAuthenticated {
		t.Errorf("pending invalidation must not override a fresh login, got %s", sh.State())
	}
	if token, _ := store.Token(); token != "tok-fresh" {
		t.Errorf("expected fresh token kept, got %q", token)
	}
}

func TestLogoutIsBestEffort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh := newTestShell(t, server.URL, store)

	if err := sh.Logout(context.Background()); err != nil {
		t.Fatalf("Logout must succeed even when the server call fails: %v", err)
	}
	if _, err := store.Token(); err == nil {
		t.Error("expected local session cleared")
	}
	if sh.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", sh.State())
	}
}

func TestRequireAdmin(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, testProfile(api.RoleUser))
	}))
	defer server.Close()

	store := session.NewMemStore()
	store.SetSession("tok-123", testProfile(api.RoleUser))
	sh := newTestShell(t, server.URL, store)

	if _, err := sh.RequireAdmin(context.Background()); err != ErrAdminRequired {
		t.Errorf("expected ErrAdminRequired for a regular user, got %v", err)
	}
	// Only the verification request went out; no admin endpoint was hit
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected a single profile request, got %d", got)
	}
}

func TestRequireAuthWithoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a stored token")
	}))
	defer server.Close()

	sh := newTestShell(t, server.URL, session.NewMemStore())

	if _, err := sh.RequireAuth(context.Background()); err != ErrNotAuthenticated {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}
