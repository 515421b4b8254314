// Package scheduler delays callbacks. Production code uses the wall clock;
// tests drive a Fake by hand.
package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Handle cancels a scheduled callback.
type Handle interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped it, false if it already ran or was stopped.
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	After(d time.Duration, fn func()) Handle
}

// Clock schedules on real time with time.AfterFunc. Callbacks run on their
// own goroutine.
type Clock struct{}

// New returns the wall-clock scheduler.
func New() Clock { return Clock{} }

// After implements Scheduler.
func (Clock) After(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// Fake is a manually advanced Scheduler. Callbacks run synchronously inside
// Advance, in deadline order, outside the Fake's lock.
type Fake struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	f    *Fake
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

// NewFake creates a Fake at time zero.
func NewFake() *Fake { return &Fake{} }

// After implements Scheduler.
func (f *Fake) After(d time.Duration, fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{f: f, at: f.now + d, seq: f.seq, fn: fn}
	f.pending = append(f.pending, t)
	return t
}

// Stop implements Handle.
func (t *fakeTimer) Stop() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward by d and runs every callback that came due,
// including ones scheduled by earlier callbacks within the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()

	for {
		t := f.next(target)
		if t == nil {
			break
		}
		t.fn()
	}

	f.mu.Lock()
	f.now = target
	f.mu.Unlock()
}

// next pops the earliest live timer due by target and marks it fired.
func (f *Fake) next(target time.Duration) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := f.pending[:0]
	for _, t := range f.pending {
		if !t.done {
			live = append(live, t)
		}
	}
	f.pending = live

	sort.Slice(f.pending, func(i, j int) bool {
		if f.pending[i].at != f.pending[j].at {
			return f.pending[i].at < f.pending[j].at
		}
		return f.pending[i].seq < f.pending[j].seq
	})
	if len(f.pending) == 0 || f.pending[0].at > target {
		return nil
	}

	t := f.pending[0]
	t.done = true
	f.now = t.at
	f.pending = f.pending[1:]
	return t
}

// Pending returns the number of callbacks not yet run or stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.pending {
		if !t.done {
			n++
		}
	}
	return n
}
