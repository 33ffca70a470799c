package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDropsNewestWhenFull(t *testing.T) {
	q := NewQueue[int]("test", 5)

	for i := 1; i <= 5; i++ {
		require.True(t, q.Offer(i, 10*time.Millisecond))
	}
	assert.False(t, q.Offer(6, 10*time.Millisecond))

	for want := 1; want <= 5; want++ {
		got, ok := q.Poll(0)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.Poll(0)
	assert.False(t, ok)

	stats := q.Stats()
	assert.Equal(t, uint64(6), stats.Offered)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(5), stats.Polled)
}

func TestQueuePollTimesOutWhenEmpty(t *testing.T) {
	q := NewQueue[string]("vacía", 1)

	start := time.Now()
	_, ok := q.Poll(30 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestQueueOfferWaitsForSpace(t *testing.T) {
	q := NewQueue[int]("espera", 1)
	require.True(t, q.Offer(1, 0))

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Poll(0)
	}()

	assert.True(t, q.Offer(2, 500*time.Millisecond))
	got, ok := q.Poll(0)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestNewQueueMinimumCapacity(t *testing.T) {
	q := NewQueue[int]("cero", 0)
	assert.Equal(t, 1, q.Cap())
}
