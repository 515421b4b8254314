package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"duel-game-bot/internal/pkg/scheduler"
)

type entry struct {
	id int
}

func newTestRegistry() (*Registry[*entry], *scheduler.Fake) {
	f := scheduler.NewFake()
	return NewRegistry[*entry](f), f
}

func TestTryCreate_SecondCallerSeesExisting(t *testing.T) {
	r, _ := newTestRegistry()

	first, ok := r.TryCreate("k", func() *entry { return &entry{id: 1} })
	require.True(t, ok)

	second, ok := r.TryCreate("k", func() *entry { return &entry{id: 2} })
	assert.False(t, ok)
	assert.Same(t, first, second)
}

func TestTryCreate_ConcurrentSingleWinner(t *testing.T) {
	r, _ := newTestRegistry()

	const callers = 64
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]*entry, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, ok := r.TryCreate("race", func() *entry { return &entry{id: i} })
			if ok {
				wins.Add(1)
			}
			results[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	for _, v := range results {
		assert.Same(t, results[0], v, "every caller observes the winning value")
	}
	assert.Equal(t, 1, r.Len())
}

func TestRemove_OnlyOneFinds(t *testing.T) {
	r, _ := newTestRegistry()
	r.TryCreate("k", func() *entry { return &entry{} })

	var found atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.Remove("k"); ok {
				found.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), found.Load())
	_, ok := r.Get("k")
	assert.False(t, ok)
}

func TestScheduleTimeout_Evicts(t *testing.T) {
	r, f := newTestRegistry()
	e, _ := r.TryCreate("k", func() *entry { return &entry{id: 7} })

	var expired *entry
	r.ScheduleTimeout("k", time.Minute, func(v *entry) { expired = v })

	f.Advance(59 * time.Second)
	_, ok := r.Get("k")
	assert.True(t, ok)

	f.Advance(time.Second)
	_, ok = r.Get("k")
	assert.False(t, ok)
	assert.Same(t, e, expired)
	assert.Equal(t, 0, f.Pending())
}

func TestScheduleTimeout_RescheduleReplaces(t *testing.T) {
	r, f := newTestRegistry()
	r.TryCreate("k", func() *entry { return &entry{} })

	var fires int
	r.ScheduleTimeout("k", time.Minute, func(*entry) { fires++ })
	f.Advance(50 * time.Second)
	r.ScheduleTimeout("k", time.Minute, func(*entry) { fires++ })

	f.Advance(20 * time.Second)
	_, ok := r.Get("k")
	assert.True(t, ok, "the first timeout was replaced")

	f.Advance(40 * time.Second)
	_, ok = r.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, fires)
}

func TestCancelTimeout_IsIdempotent(t *testing.T) {
	r, f := newTestRegistry()
	r.TryCreate("k", func() *entry { return &entry{} })

	r.CancelTimeout("missing")
	r.ScheduleTimeout("k", time.Second, func(*entry) { t.Fatal("cancelled timeout fired") })
	r.CancelTimeout("k")
	r.CancelTimeout("k")

	f.Advance(time.Minute)
	_, ok := r.Get("k")
	assert.True(t, ok)
}

func TestScheduleTimeout_AlreadyRemoved(t *testing.T) {
	r, f := newTestRegistry()
	r.TryCreate("k", func() *entry { return &entry{} })
	r.ScheduleTimeout("k", time.Second, func(*entry) { t.Fatal("onExpire ran for a removed session") })

	// Completion removed the session but lost the race to cancel.
	r.Remove("k")
	f.Advance(time.Second)
}

func TestClose(t *testing.T) {
	r, f := newTestRegistry()
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("k%d", i)
		r.TryCreate(key, func() *entry { return &entry{id: i} })
		r.ScheduleTimeout(key, time.Second, nil)
	}

	r.Close()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, f.Pending())
}

// TestRegistryModelProperty checks create/remove sequences against a
// plain map.
func TestRegistryModelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r, _ := newTestRegistry()
		model := make(map[string]int)
		keys := []string{"a", "b", "c"}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			key := rapid.SampledFrom(keys).Draw(t, "key")
			if rapid.Bool().Draw(t, "create") {
				v, ok := r.TryCreate(key, func() *entry { return &entry{id: i} })
				_, exists := model[key]
				if ok == exists {
					t.Fatalf("TryCreate(%s) = %v with existing=%v", key, ok, exists)
				}
				if ok {
					model[key] = i
				} else if v.id != model[key] {
					t.Fatalf("TryCreate returned %d, want existing %d", v.id, model[key])
				}
			} else {
				_, ok := r.Remove(key)
				_, exists := model[key]
				if ok != exists {
					t.Fatalf("Remove(%s) = %v with existing=%v", key, ok, exists)
				}
				delete(model, key)
			}
		}
		if r.Len() != len(model) {
			t.Fatalf("Len %d, want %d", r.Len(), len(model))
		}
	})
}

// TestClockTimeoutEvicts exercises eviction on the real clock.
func TestClockTimeoutEvicts(t *testing.T) {
	r := NewRegistry[*entry](scheduler.New())
	r.TryCreate("k", func() *entry { return &entry{} })

	done := make(chan struct{})
	r.ScheduleTimeout("k", 10*time.Millisecond, func(*entry) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}
	_, ok := r.Get("k")
	assert.False(t, ok)
}
