// Package session keeps the live matches of one game variant and evicts
// those left idle past their timeout.
package session

import (
	"sync"
	"time"

	"duel-game-bot/internal/pkg/scheduler"
)

// Registry maps session keys to live values. At most one value exists per
// key. Every method is safe for concurrent use.
type Registry[V any] struct {
	sessions sync.Map // map[string]V
	sched    scheduler.Scheduler

	mu     sync.Mutex
	timers map[string]*timer
}

// timer identifies one scheduled eviction. A fired callback whose timer is
// no longer the registered one for its key does nothing.
type timer struct {
	h scheduler.Handle
}

// NewRegistry creates an empty registry scheduling evictions on sched.
func NewRegistry[V any](sched scheduler.Scheduler) *Registry[V] {
	return &Registry[V]{
		sched:  sched,
		timers: make(map[string]*timer),
	}
}

// TryCreate stores factory's value under key unless key is already taken.
// It returns the stored value and true on success, or the existing value
// and false. Of any number of concurrent callers for the same key exactly
// one succeeds. factory may run for losing callers; its result is then
// dropped.
func (r *Registry[V]) TryCreate(key string, factory func() V) (V, bool) {
	if v, ok := r.sessions.Load(key); ok {
		return v.(V), false
	}
	actual, loaded := r.sessions.LoadOrStore(key, factory())
	return actual.(V), !loaded
}

// Get returns the value under key.
func (r *Registry[V]) Get(key string) (V, bool) {
	v, ok := r.sessions.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Remove deletes key and returns the value that was stored. When several
// callers race to remove the same key only one sees found == true.
func (r *Registry[V]) Remove(key string) (V, bool) {
	v, ok := r.sessions.LoadAndDelete(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// ScheduleTimeout evicts key after d, replacing any earlier timeout for
// the same key. onExpire receives the evicted value and only runs if the
// eviction actually removed it.
func (r *Registry[V]) ScheduleTimeout(key string, d time.Duration, onExpire func(V)) {
	t := &timer{}

	r.mu.Lock()
	if prev, ok := r.timers[key]; ok {
		prev.h.Stop()
	}
	r.timers[key] = t
	// Holding mu until h is assigned keeps the callback from observing a
	// nil handle, even with a zero delay.
	t.h = r.sched.After(d, func() { r.expire(key, t, onExpire) })
	r.mu.Unlock()
}

func (r *Registry[V]) expire(key string, t *timer, onExpire func(V)) {
	r.mu.Lock()
	if r.timers[key] != t {
		r.mu.Unlock()
		return
	}
	delete(r.timers, key)
	r.mu.Unlock()

	v, ok := r.Remove(key)
	if ok && onExpire != nil {
		onExpire(v)
	}
}

// CancelTimeout stops key's pending timeout. It is a no-op when none is
// pending.
func (r *Registry[V]) CancelTimeout(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[key]; ok {
		t.h.Stop()
		delete(r.timers, key)
	}
}

// Range calls fn for each live session until fn returns false.
func (r *Registry[V]) Range(fn func(key string, v V) bool) {
	r.sessions.Range(func(k, v any) bool {
		return fn(k.(string), v.(V))
	})
}

// Len returns the number of live sessions.
func (r *Registry[V]) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops every pending timeout and drops all sessions.
func (r *Registry[V]) Close() {
	r.mu.Lock()
	for key, t := range r.timers {
		t.h.Stop()
		delete(r.timers, key)
	}
	r.mu.Unlock()

	r.sessions.Range(func(k, _ any) bool {
		r.sessions.Delete(k)
		return true
	})
}
