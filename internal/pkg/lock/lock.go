// Package lock provides per-player locking so that rating updates touching
// the same player are serialized.
package lock

import (
	"context"
	"sync"
	"time"
)

// PlayerLock hands out one mutex per player ID.
type PlayerLock struct {
	locks sync.Map // map[int64]*sync.Mutex
}

// NewPlayerLock creates a PlayerLock.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{}
}

// get retrieves or creates the mutex for playerID.
func (pl *PlayerLock) get(playerID int64) *sync.Mutex {
	if v, ok := pl.locks.Load(playerID); ok {
		return v.(*sync.Mutex)
	}
	// Another goroutine may have stored one first.
	actual, _ := pl.locks.LoadOrStore(playerID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Unlock releases playerID's lock.
func (pl *PlayerLock) Unlock(playerID int64) {
	if v, ok := pl.locks.Load(playerID); ok {
		v.(*sync.Mutex).Unlock()
	}
}

func order(a, b int64) (int64, int64) {
	if a <= b {
		return a, b
	}
	return b, a
}

// LockWithTimeout tries to acquire playerID's lock until timeout or ctx
// expires. It reports whether the lock was acquired.
func (pl *PlayerLock) LockWithTimeout(ctx context.Context, playerID int64, timeout time.Duration) bool {
	m := pl.get(playerID)

	done := make(chan struct{})
	go func() {
		m.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return true
	case <-timeoutCtx.Done():
		// The waiter still gets the mutex eventually; hand it straight back.
		go func() {
			<-done
			m.Unlock()
		}()
		return false
	}
}

// WithPairContext runs fn while holding both players' locks, bounded by
// timeout and ctx. Locks are taken in ascending ID order so concurrent pair
// updates cannot deadlock, and equal IDs take a single lock. The second lock
// is acquired with whatever remains of timeout.
func (pl *PlayerLock) WithPairContext(ctx context.Context, a, b int64, timeout time.Duration, fn func() error) error {
	lo, hi := order(a, b)
	deadline := time.Now().Add(timeout)

	if !pl.LockWithTimeout(ctx, lo, timeout) {
		return ErrLockTimeout
	}
	defer pl.Unlock(lo)

	if hi != lo {
		if !pl.LockWithTimeout(ctx, hi, time.Until(deadline)) {
			return ErrLockTimeout
		}
		defer pl.Unlock(hi)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
