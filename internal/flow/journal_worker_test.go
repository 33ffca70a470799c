package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobins-kiosk/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []models.JournalEntry
	fail    bool
	block   chan struct{}
}

func (s *memoryStore) InsertJournalEntry(_ context.Context, e models.JournalEntry) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("connection refused")
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestJournalWorkerWritesEntries(t *testing.T) {
	store := &memoryStore{}
	w := NewJournalWorker(context.Background(), store, 10)
	w.Start()

	w.Record(models.JournalEntry{Kind: models.JournalLogin, UID: "abc123", Username: "Ana"})
	w.Record(models.JournalEntry{Kind: models.JournalRecycle, UID: "abc123", QR: "XYZ", Peso: 4})

	require.Eventually(t, func() bool { return store.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	w.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotEmpty(t, store.entries[0].ID)
	assert.NotEqual(t, store.entries[0].ID, store.entries[1].ID)
	assert.False(t, store.entries[0].Timestamp.IsZero())
	assert.Equal(t, uint64(2), w.Stats().Written)
}

func TestJournalWorkerDropsWhenFull(t *testing.T) {
	store := &memoryStore{}
	w := NewJournalWorker(context.Background(), store, 2)

	for i := 0; i < 5; i++ {
		w.Record(models.JournalEntry{Kind: models.JournalLogin})
	}

	stats := w.Stats()
	assert.Equal(t, uint64(3), stats.Queue.Dropped)
	assert.Equal(t, 2, stats.Queue.Length)

	w.Start()
	w.Stop()
	assert.Equal(t, 2, store.count())
}

func TestJournalWorkerCountsFailures(t *testing.T) {
	store := &memoryStore{fail: true}
	w := NewJournalWorker(context.Background(), store, 4)
	w.Start()

	w.Record(models.JournalEntry{Kind: models.JournalLogout})

	require.Eventually(t, func() bool { return w.Stats().Failed == 1 }, 2*time.Second, 10*time.Millisecond)
	w.Stop()
	assert.Equal(t, uint64(0), w.Stats().Written)
}

func TestJournalRecordDoesNotBlock(t *testing.T) {
	store := &memoryStore{block: make(chan struct{})}
	w := NewJournalWorker(context.Background(), store, 1)
	w.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			w.Record(models.JournalEntry{Kind: models.JournalLogin})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record bloqueó con el store detenido")
	}

	close(store.block)
	w.Stop()
}
