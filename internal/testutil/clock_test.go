package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock(time.Time{})
	assert.Equal(t, Epoch, clock.Now())
}

func TestManualClock_Advance(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	assert.Equal(t, start.Add(time.Second), clock.Advance(time.Second))
	assert.Equal(t, start.Add(time.Second), clock.Now())

	// Now does not move on its own
	assert.Equal(t, clock.Now(), clock.Now())
}

func TestManualClock_Set(t *testing.T) {
	clock := NewManualClock(time.Time{})
	target := Epoch.Add(time.Hour)

	clock.Set(target)
	assert.Equal(t, target, clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(time.Time{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
			clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(100*time.Millisecond), clock.Now())
}
