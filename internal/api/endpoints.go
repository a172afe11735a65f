package api

import "strings"

// Endpoint classification drives the 401 invalidation policy only. It
// never decides whether a token is attached: every request carries the
// stored token when one exists, and the backend decides what requires
// authentication.

// publicPaths are endpoints intentionally callable without a session. A
// 401 from one of these must not wipe stored credentials.
var publicPaths = []string{
	"/waste-types",
	"/seed-data",
}

// isAuthPath reports whether path belongs to the authentication flow
// (login exchange, session check, logout). A 401 from these is a normal
// answer, not evidence of an expired session.
func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}

// isPublicPath reports whether path is a declared public endpoint.
func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
