package auth

import "sync"

// DefaultFailureLimit is the number of consecutive failed logins after
// which further attempts are refused.
const DefaultFailureLimit = 50

// LoginLimiter throttles repeated failed login attempts. Methods accept
// a caller key (account email, client IP) so the limiter can later be
// partitioned per key, but the current implementation keeps a single
// counter shared by all callers — a documented limitation carried over
// from the reference behavior, not a feature.
type LoginLimiter struct {
	mu       sync.Mutex
	failures int
	limit    int
}

func NewLoginLimiter(limit int) *LoginLimiter {
	if limit <= 0 {
		limit = DefaultFailureLimit
	}
	return &LoginLimiter{limit: limit}
}

// RecordFailure notes one failed login attempt.
func (l *LoginLimiter) RecordFailure(key string) {
	l.mu.Lock()
	l.failures++
	l.mu.Unlock()
}

// RecordSuccess resets the failure counter.
func (l *LoginLimiter) RecordSuccess(key string) {
	l.mu.Lock()
	l.failures = 0
	l.mu.Unlock()
}

// Blocked reports whether the failure ceiling has been reached. When it
// returns true, login must short-circuit before any credential lookup.
func (l *LoginLimiter) Blocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures >= l.limit
}
