package auth

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// Three attempts per minute per phone: burst of 3, one token back
	// every 20 seconds.
	loginBurst    = 3
	loginRefill   = 20 * time.Second
	limiterIdle   = 10 * time.Minute
	limiterMaxLen = 1000
)

// LoginLimiter throttles login code attempts per phone number using a
// token bucket. A fresh phone gets loginBurst immediate attempts, then
// one more every loginRefill.
type LoginLimiter struct {
	mu       sync.Mutex
	perPhone map[string]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates an empty limiter.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{perPhone: make(map[string]*limiterEntry)}
}

// Allow reports whether a login attempt for the phone may proceed now.
func (l *LoginLimiter) Allow(phone string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.perPhone[phone]
	if !ok {
		if len(l.perPhone) >= limiterMaxLen {
			l.prune()
		}
		entry = &limiterEntry{lim: rate.NewLimiter(rate.Every(loginRefill), loginBurst)}
		l.perPhone[phone] = entry
	}
	entry.lastSeen = time.Now()

	allowed := entry.lim.Allow()
	if !allowed {
		log.Warn().Str("phone", MaskPhone(phone)).Msg("Login rate limited")
	}
	return allowed
}

// prune drops entries idle longer than limiterIdle. Caller holds the lock.
func (l *LoginLimiter) prune() {
	cutoff := time.Now().Add(-limiterIdle)
	for phone, entry := range l.perPhone {
		if entry.lastSeen.Before(cutoff) {
			delete(l.perPhone, phone)
		}
	}
}

// MaskPhone hides all but the last four digits for log output.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
