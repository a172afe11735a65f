// Package notify delivers transient user-facing messages. It also owns
// the session-expired suppression state: when several in-flight
// requests fail with 401 at once, the user sees exactly one "session
// expired" message per cooldown window instead of a burst.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultCooldown matches the delay between the session-expired
// message and the return to the landing state.
const DefaultCooldown = 1500 * time.Millisecond

// SessionExpiredMessage is the single user-facing invalidation notice.
const SessionExpiredMessage = "Your session has expired. Please log in again."

// Notifier writes user-facing messages to out. The zero value is not
// usable; create one with New.
type Notifier struct {
	out      io.Writer
	cooldown time.Duration

	mu         sync.Mutex
	suppressed bool
	timer      *time.Timer
}

// New creates a Notifier writing to out. A non-positive cooldown falls
// back to DefaultCooldown.
func New(out io.Writer, cooldown time.Duration) *Notifier {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Notifier{out: out, cooldown: cooldown}
}

// Success prints a success message.
func (n *Notifier) Success(format string, args ...any) {
	fmt.Fprintf(n.out, "✓ "+format+"\n", args...)
}

// Error prints a failure message.
func (n *Notifier) Error(format string, args ...any) {
	fmt.Fprintf(n.out, "✗ "+format+"\n", args...)
}

// Info prints a neutral message.
func (n *Notifier) Info(format string, args ...any) {
	fmt.Fprintf(n.out, format+"\n", args...)
}

// SessionExpired shows the session-expired notice unless one was
// already shown within the cooldown window. It reports whether the
// notice was actually displayed. The suppression flag resets itself
// when the cooldown elapses.
func (n *Notifier) SessionExpired() bool {
	n.mu.Lock()
	if n.suppressed {
		n.mu.Unlock()
		return false
	}
	n.suppressed = true
	n.timer = time.AfterFunc(n.cooldown, func() {
		n.mu.Lock()
		n.suppressed = false
		n.mu.Unlock()
	})
	n.mu.Unlock()

	n.Error("%s", SessionExpiredMessage)
	return true
}

// Reset clears the suppression flag immediately. Called after a fresh
// login so a later genuine expiry is not swallowed.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.suppressed = false
}
