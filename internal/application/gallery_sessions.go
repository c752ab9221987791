package application

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// GallerySession is one client's gallery view. Events for a session are
// applied one at a time under mu.
type GallerySession struct {
	ID uuid.UUID

	mu       sync.Mutex
	ctrl     *GalleryController
	lastUsed atomic.Int64
	// closed sessions are hidden from clients and only wait for resync
	closed atomic.Bool
}

// SessionStore keeps gallery sessions in memory and evicts idle ones.
type SessionStore struct {
	sessions map[uuid.UUID]*GallerySession
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store; sessions idle for longer than ttl are
// evicted every cleanupEvery. A zero cleanupEvery disables the background
// loop.
func NewSessionStore(ttl, cleanupEvery time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[uuid.UUID]*GallerySession),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if cleanupEvery > 0 {
		go s.cleanupLoop(cleanupEvery)
	}

	return s
}

// Add registers ctrl under a new session id.
func (s *SessionStore) Add(ctrl *GalleryController) *GallerySession {
	sess := &GallerySession{
		ID:   uuid.New(),
		ctrl: ctrl,
	}
	sess.touch(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session if it exists and has not expired.
func (s *SessionStore) Get(id uuid.UUID) (*GallerySession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if sess.closed.Load() || s.expired(sess) {
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Snapshot returns every live session.
func (s *SessionStore) Snapshot() []*GallerySession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*GallerySession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *SessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stop ends the cleanup loop.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *SessionStore) expired(sess *GallerySession) bool {
	if s.ttl <= 0 {
		return false
	}
	last := time.Unix(0, sess.lastUsed.Load())
	return s.now().Sub(last) > s.ttl
}

func (s *SessionStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup evicts expired and closed sessions. Out-of-sync sessions are kept
// so the resync job can still flush them.
func (s *SessionStore) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if !sess.closed.Load() && !s.expired(sess) {
			continue
		}
		// busy sessions are in use and stay
		if !sess.mu.TryLock() {
			continue
		}
		pending := sess.ctrl.OutOfSync()
		sess.mu.Unlock()
		if pending {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	return evicted
}

// with runs fn while holding the session lock and refreshes its idle timer.
func (sess *GallerySession) with(now time.Time, fn func(*GalleryController) error) (View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.touch(now)
	err := fn(sess.ctrl)
	return sess.ctrl.View(), err
}

func (sess *GallerySession) touch(now time.Time) {
	sess.lastUsed.Store(now.UnixNano())
}
