package api

import (
	"context"
	"net/http"
)

// The client's cross-cutting behavior is modeled as an explicit
// RoundTripper pipeline rather than callbacks on a particular request:
// bearerTransport runs before every request, unauthorizedTransport
// inspects every response. Callers never invoke either stage directly.

// SessionStore is the slice of the session store the transport needs:
// reading the current token for the outbound stage and clearing it on
// invalidation. The full store lives in internal/session.
type SessionStore interface {
	Token() (string, error)
	Clear() error
}

type contextKey int

// sentTokenKey records which token was attached to the outgoing
// request so the inbound stage can tell whether the session that
// produced a failing response is still the current one.
const sentTokenKey contextKey = iota

// bearerTransport attaches the stored session token as a bearer
// credential on every outgoing request. This stage never fails the
// request; with no token stored the request simply goes out
// unauthenticated and the backend decides whether that is acceptable.
type bearerTransport struct {
	base     http.RoundTripper
	sessions SessionStore
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.sessions.Token()
	if err != nil || token == "" {
		return t.base.RoundTrip(req)
	}

	// Clone before mutating: RoundTrippers must not modify the caller's
	// request.
	clone := req.Clone(context.WithValue(req.Context(), sentTokenKey, token))
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

// unauthorizedTransport watches every response for authentication
// failure. A 401 counts as session invalidation only when all of these
// hold:
//
//   - the target endpoint is not part of the auth flow,
//   - the target endpoint is not a declared public endpoint,
//   - the application is not already on the unauthenticated landing
//     state, and
//   - the token that produced the failure is still the stored one (a
//     late 401 from before a fresh login must not wipe the new session).
//
// On invalidation the session store is cleared and the configured
// handler is signaled. Every other response and every transport error
// passes through untouched.
type unauthorizedTransport struct {
	base          http.RoundTripper
	sessions      SessionStore
	landingActive func() bool
	onInvalidate  func()
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		// Network failure or timeout: never treated as invalidation.
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	path := req.URL.Path
	if isAuthPath(path) || isPublicPath(path) {
		return resp, nil
	}
	if t.landingActive != nil && t.landingActive() {
		return resp, nil
	}

	sent, _ := req.Context().Value(sentTokenKey).(string)
	if sent == "" {
		// The request went out unauthenticated; there is no session to
		// invalidate.
		return resp, nil
	}
	if current, err := t.sessions.Token(); err != nil || current != sent {
		// A newer login replaced the session while this request was in
		// flight. Propagate the stale failure untouched.
		return resp, nil
	}

	if err := t.sessions.Clear(); err == nil && t.onInvalidate != nil {
		t.onInvalidate()
	}

	return resp, nil
}
