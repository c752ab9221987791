package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Resyncer flushes gallery changes the image store rejected earlier.
type Resyncer interface {
	ResyncAll(ctx context.Context) (synced, failed int)
}

// SyncScheduler retries out-of-sync gallery sessions on a fixed interval.
type SyncScheduler struct {
	gallery  Resyncer
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncScheduler(gallery Resyncer, interval time.Duration) *SyncScheduler {
	return &SyncScheduler{
		gallery:  gallery,
		interval: interval,
	}
}

// Start runs the resync loop until Stop is called or ctx is done.
func (s *SyncScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	log.Printf("🕐 Gallery resync scheduler started, every %s", s.interval)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running pass to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Println("🛑 Gallery resync scheduler stopped")
}

// RunOnce performs a single resync pass.
func (s *SyncScheduler) RunOnce(ctx context.Context) {
	synced, failed := s.gallery.ResyncAll(ctx)
	if synced == 0 && failed == 0 {
		return
	}
	if failed > 0 {
		log.Printf("❌ Gallery resync: %d sessions synced, %d still failing", synced, failed)
		return
	}
	log.Printf("✅ Gallery resync: %d sessions synced", synced)
}
