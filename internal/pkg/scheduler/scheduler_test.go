package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_RunsInDeadlineOrder(t *testing.T) {
	f := NewFake()
	var order []string

	f.After(3*time.Second, func() { order = append(order, "c") })
	f.After(time.Second, func() { order = append(order, "a") })
	f.After(2*time.Second, func() { order = append(order, "b") })

	f.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, f.Pending())

	f.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, f.Pending())
}

func TestFake_Stop(t *testing.T) {
	f := NewFake()
	fired := false

	h := f.After(time.Second, func() { fired = true })
	assert.True(t, h.Stop())
	assert.False(t, h.Stop(), "second stop reports nothing stopped")

	f.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFake_StopAfterFire(t *testing.T) {
	f := NewFake()
	h := f.After(time.Second, func() {})

	f.Advance(time.Second)
	assert.False(t, h.Stop())
}

func TestFake_CallbackSchedulesWithinWindow(t *testing.T) {
	f := NewFake()
	var count int

	f.After(time.Second, func() {
		count++
		f.After(time.Second, func() { count++ })
	})

	f.Advance(5 * time.Second)
	assert.Equal(t, 2, count)
}

func TestClock_After(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})

	New().After(10*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not run")
	}
	assert.True(t, fired.Load())
}
