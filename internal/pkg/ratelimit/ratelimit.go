// Package ratelimit throttles actions per user with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minSweep is the bucket count at which the first sweep runs.
const minSweep = 1024

// Limiter hands out one token bucket per user. Buckets that have refilled
// completely are dropped once the map doubles in size since the last sweep.
type Limiter struct {
	rate  rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[int64]*rate.Limiter
	nextSweep int
}

// New creates a Limiter allowing perSecond actions with bursts of burst.
// A non-positive perSecond disables limiting.
func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:      rate.Limit(perSecond),
		burst:     burst,
		now:       time.Now,
		buckets:   make(map[int64]*rate.Limiter),
		nextSweep: minSweep,
	}
}

// Allow reports whether userID may act now.
func (l *Limiter) Allow(userID int64) bool {
	if l.rate <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[userID]
	if !ok {
		if len(l.buckets) >= l.nextSweep {
			l.sweep(now)
		}
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[userID] = b
	}
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// sweep drops full buckets. A full bucket answers exactly like a fresh one.
// Callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if b.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, id)
		}
	}
	l.nextSweep = max(minSweep, 2*len(l.buckets))
}

// Users returns the number of users with a bucket.
func (l *Limiter) Users() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
