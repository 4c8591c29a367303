package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/placebreak/internal/location"
)

func testJob(op string) job {
	return job{op: op, loc: location.At[int32]("world", 0, 0, 0), task: newTask()}
}

func TestJobQueue_EnqueueDequeue(t *testing.T) {
	q := newJobQueue()

	ok := q.Enqueue(testJob("put"))
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, "put", got.op)
}

func TestJobQueue_FIFO(t *testing.T) {
	q := newJobQueue()

	for _, op := range []string{"A", "B", "C"} {
		q.Enqueue(testJob(op))
	}

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.op)
	}
}

func TestJobQueue_TryDequeue_Empty(t *testing.T) {
	q := newJobQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestJobQueue_Wait_SignalsOnEnqueue(t *testing.T) {
	q := newJobQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(testJob("late"))
	}()

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("Wait() did not signal")
	}
	assert.Equal(t, 1, q.Len())
}

func TestJobQueue_Close(t *testing.T) {
	q := newJobQueue()
	q.Enqueue(testJob("queued"))
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(testJob("rejected")), "enqueue after close should fail")
	assert.False(t, q.Drained(), "queued job survives close")

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Drained())

	select {
	case <-q.Wait():
	default:
		t.Fatal("Wait() should fire after Close()")
	}
}

func TestJobQueue_ThreadSafe(t *testing.T) {
	q := newJobQueue()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(testJob("concurrent"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, q.Len())
}
