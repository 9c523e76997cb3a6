package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]Entry
}

func (m *memStorage) WriteBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]Entry(nil), entries...))
	return nil
}

func (m *memStorage) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestJournalBatchesAndDrains(t *testing.T) {
	store := &memStorage{}
	j := New(store, Options{BatchSize: 10, FlushInterval: time.Hour}, zap.NewNop())
	j.Start()

	for i := 0; i < 25; i++ {
		j.Log(Entry{SearchID: "s"})
	}
	j.Stop()

	if got := store.total(); got != 25 {
		t.Fatalf("written = %d, want 25", got)
	}
	for _, b := range store.batches {
		if len(b) > 10 {
			t.Fatalf("batch of %d exceeds BatchSize", len(b))
		}
	}
	for _, b := range store.batches {
		for _, e := range b {
			if e.ResolvedAt.IsZero() {
				t.Fatalf("ResolvedAt not stamped")
			}
		}
	}
}

func TestJournalFlushesOnTicker(t *testing.T) {
	store := &memStorage{}
	j := New(store, Options{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, zap.NewNop())
	j.Start()
	defer j.Stop()

	j.Log(Entry{SearchID: "s"})

	deadline := time.Now().Add(2 * time.Second)
	for store.total() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("entry not flushed by ticker")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJournalDropsAfterStop(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &memStorage{}
	j := New(store, Options{}, zap.New(core))
	j.Start()
	j.Stop()
	j.Stop()

	j.Log(Entry{ID: "late"})
	if store.total() != 0 {
		t.Fatalf("entry written after Stop")
	}
	if logs.FilterMessage("journal entry dropped: journal is stopping").Len() != 1 {
		t.Fatalf("drop not logged")
	}
}

func TestJournalOverflowSheds(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	j := New(&memStorage{}, Options{BufferSize: 1}, zap.New(core))
	// воркер не запущен: второй Log упирается в полный буфер
	j.Log(Entry{SearchID: "a"})
	j.Log(Entry{SearchID: "b"})

	if logs.FilterMessage("journal_buffer_overflow").Len() != 1 {
		t.Fatalf("overflow not logged")
	}
}
