package application

import (
	"context"
	"log"

	"github.com/Maxito7/gallery_backend/internal/domain"
	"github.com/google/uuid"
)

type GalleryService struct {
	provider domain.ImageProvider
	sessions *SessionStore
	reporter FailureReporter
}

func NewGalleryService(provider domain.ImageProvider, sessions *SessionStore, reporter FailureReporter) *GalleryService {
	return &GalleryService{provider: provider, sessions: sessions, reporter: reporter}
}

func (s *GalleryService) GetAllImages(ctx context.Context) ([]domain.GalleryImage, error) {
	return s.provider.GetAll(ctx)
}

// OpenSession loads the current image list into a new controller.
func (s *GalleryService) OpenSession(ctx context.Context) (uuid.UUID, View, error) {
	ctrl, err := NewGalleryController(ctx, s.provider, s.reporter)
	if err != nil {
		return uuid.Nil, View{}, err
	}
	sess := s.sessions.Add(ctrl)
	log.Printf("gallery: session %s opened with %d images", sess.ID, len(ctrl.Images()))
	return sess.ID, ctrl.View(), nil
}

// CloseSession flushes the session's pending writes and drops it. When the
// provider still fails the session is hidden from clients but stays in the
// store until ResyncAll persists it.
func (s *GalleryService) CloseSession(ctx context.Context, id uuid.UUID) error {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.ctrl.Resync(ctx); err != nil {
		sess.closed.Store(true)
		log.Printf("gallery: session %s closed with unsaved changes: %v", sess.ID, err)
		return err
	}
	s.sessions.Delete(id)
	return nil
}

// Apply runs fn against the session's controller and returns the resulting
// view. Events for one session never interleave.
func (s *GalleryService) Apply(id uuid.UUID, fn func(*GalleryController) error) (View, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return View{}, domain.ErrSessionNotFound
	}
	return sess.with(s.sessions.now(), fn)
}

func (s *GalleryService) GetView(id uuid.UUID) (View, error) {
	return s.Apply(id, func(*GalleryController) error { return nil })
}

func (s *GalleryService) ToggleSelection(id uuid.UUID, imageID int) (View, error) {
	return s.Apply(id, func(g *GalleryController) error {
		g.ToggleSelection(imageID)
		return nil
	})
}

func (s *GalleryService) ClearSelection(id uuid.UUID) (View, error) {
	return s.Apply(id, func(g *GalleryController) error {
		g.ClearSelection()
		return nil
	})
}

func (s *GalleryService) DeleteSelected(ctx context.Context, id uuid.UUID) (View, error) {
	return s.Apply(id, func(g *GalleryController) error {
		_, err := g.DeleteSelected(ctx)
		return err
	})
}

func (s *GalleryService) DragStart(id uuid.UUID, ev DragStartEvent) (View, error) {
	return s.Apply(id, func(g *GalleryController) error {
		g.DragStart(ev)
		return nil
	})
}

func (s *GalleryService) DragEnd(ctx context.Context, id uuid.UUID, ev DragEndEvent) (View, error) {
	return s.Apply(id, func(g *GalleryController) error {
		_, err := g.DragEnd(ctx, ev)
		return err
	})
}

func (s *GalleryService) DragCancel(id uuid.UUID) (View, error) {
	return s.Apply(id, func(g *GalleryController) error {
		g.DragCancel()
		return nil
	})
}

// ResyncAll retries persistence for every out-of-sync session.
func (s *GalleryService) ResyncAll(ctx context.Context) (synced, failed int) {
	for _, sess := range s.sessions.Snapshot() {
		sess.mu.Lock()
		if !sess.ctrl.OutOfSync() {
			sess.mu.Unlock()
			continue
		}
		err := sess.ctrl.Resync(ctx)
		sess.mu.Unlock()

		if err != nil {
			log.Printf("gallery: resync of session %s failed: %v", sess.ID, err)
			failed++
			continue
		}
		synced++
		if sess.closed.Load() {
			s.sessions.Delete(sess.ID)
		}
	}
	return synced, failed
}

// Watch streams the session's view after every change, starting with the
// current one. Slow readers only see the latest view. stop must be called
// to unsubscribe.
func (s *GalleryService) Watch(id uuid.UUID) (views <-chan View, stop func(), err error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	ch := make(chan View, 1)
	push := func(v View) {
		select {
		case ch <- v:
			return
		default:
		}
		// replace the stale view nobody read yet
		select {
		case <-ch:
		default:
		}
		ch <- v
	}

	var unsubscribe func()
	sess.with(s.sessions.now(), func(g *GalleryController) error {
		push(g.View())
		unsubscribe = g.Subscribe(push)
		return nil
	})

	stop = func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		unsubscribe()
	}
	return ch, stop, nil
}
