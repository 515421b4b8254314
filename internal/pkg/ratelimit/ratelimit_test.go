package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Burst(t *testing.T) {
	// One token per hour, so no refill happens during the test.
	l := New(1.0/3600, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(1), "burst token %d", i)
	}
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "users have separate buckets")
	assert.Equal(t, 2, l.Users())
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1))
	}
	assert.Equal(t, 0, l.Users())
}

func TestLimiter_SweepDropsOnlyFullBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(1, 1)
	l.now = func() time.Time { return now }
	l.nextSweep = 2

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(2))
	assert.Equal(t, 2, l.Users())

	now = now.Add(2 * time.Second)
	assert.True(t, l.Allow(2), "user 2 spends its refilled token")

	assert.True(t, l.Allow(3))
	assert.Equal(t, 2, l.Users(), "user 1 refilled and was dropped")
	assert.False(t, l.Allow(2), "user 2 kept its empty bucket")
	assert.True(t, l.Allow(1), "a dropped user starts with a full bucket")
}

func TestLimiter_SweepThresholdGrows(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(1.0/3600, 1)
	l.now = func() time.Time { return now }

	for id := int64(0); id < minSweep+10; id++ {
		l.Allow(id)
	}
	assert.Equal(t, minSweep+10, l.Users(), "empty buckets survive the sweep")
	assert.Equal(t, 2*minSweep, l.nextSweep)
}
