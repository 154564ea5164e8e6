package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// RetentionWorker periodically evicts idle sessions in the background.
type RetentionWorker struct {
	store    *Store
	maxAge   time.Duration
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetentionWorker creates a worker that runs Cleanup(maxAge) every
// interval.
func NewRetentionWorker(store *Store, maxAge, interval time.Duration) *RetentionWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &RetentionWorker{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the background retention loop.
func (w *RetentionWorker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop stops the worker and waits for the loop to exit.
func (w *RetentionWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *RetentionWorker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("🔄 Session retention worker started (max age: %v, interval: %v)", w.maxAge, w.interval)

	for {
		select {
		case <-w.ctx.Done():
			log.Println("🛑 Session retention worker stopped")
			return

		case <-ticker.C:
			removed, err := w.store.Cleanup(w.maxAge)
			if err != nil {
				log.Printf("⚠️  Session cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("🧹 Evicted %d idle session(s), %d remaining", removed, w.store.SessionCount())
			}
		}
	}
}
