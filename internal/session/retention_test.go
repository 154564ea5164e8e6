package session

import (
	"testing"
	"time"
)

func TestRetentionWorkerEvictsIdleSessions(t *testing.T) {
	store := Open(NewMemorySnapshot())
	defer store.Close()

	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.SaveAnalysis("idle", resultWithScore(50)); err != nil {
		t.Fatal(err)
	}

	// Jump the store clock forward before starting the worker so the
	// session is already past the max age on the first tick.
	store.now = func() time.Time { return base.Add(time.Hour) }

	worker := NewRetentionWorker(store, 30*time.Minute, 5*time.Millisecond)
	worker.Start()
	defer worker.Stop()

	deadline := time.After(5 * time.Second)
	for store.SessionCount() > 0 {
		select {
		case <-deadline:
			t.Fatal("retention worker never evicted the idle session")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRetentionWorkerStops(t *testing.T) {
	store := Open(NewMemorySnapshot())
	defer store.Close()

	worker := NewRetentionWorker(store, time.Hour, time.Hour)
	worker.Start()
	worker.Stop() // must not hang
}
