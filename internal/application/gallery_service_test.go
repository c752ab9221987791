package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Maxito7/gallery_backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, p *fakeProvider) (*GalleryService, *SessionStore) {
	t.Helper()
	store := NewSessionStore(time.Hour, 0)
	t.Cleanup(store.Stop)
	return NewGalleryService(p, store, &recordingReporter{}), store
}

func TestGalleryService_SessionLifecycle(t *testing.T) {
	svc, store := newService(t, newFakeProvider(A, B, C))
	ctx := context.Background()

	id, view, err := svc.OpenSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Len(t, view.Items, 3)
	assert.Equal(t, 1, store.Size())

	view, err = svc.ToggleSelection(id, B)
	require.NoError(t, err)
	assert.Equal(t, "1 Files Selected", view.ToolbarLabel)

	view, err = svc.DeleteSelected(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{A, C}, itemIDs(view))
	assert.Equal(t, 0, view.SelectedCount)

	view, err = svc.DragStart(id, DragStartEvent{ID: C})
	require.NoError(t, err)
	require.NotNil(t, view.Overlay)

	view, err = svc.DragEnd(ctx, id, DragEndEvent{ActiveID: C, OverID: intp(A)})
	require.NoError(t, err)
	assert.Equal(t, []int{C, A}, itemIDs(view))
	assert.Nil(t, view.Overlay)

	require.NoError(t, svc.CloseSession(ctx, id))
	_, err = svc.GetView(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.CloseSession(ctx, id), domain.ErrSessionNotFound)
	assert.Equal(t, 0, store.Size())
}

func TestGalleryService_CloseFlushesPendingWrites(t *testing.T) {
	p := newFakeProvider(A, B, C)
	svc, store := newService(t, p)
	ctx := context.Background()
	id, _, err := svc.OpenSession(ctx)
	require.NoError(t, err)

	p.fail(errStoreDown)
	_, err = svc.ToggleSelection(id, B)
	require.NoError(t, err)
	_, err = svc.DeleteSelected(ctx, id)
	require.ErrorIs(t, err, ErrProviderSync)

	p.fail(nil)
	require.NoError(t, svc.CloseSession(ctx, id))
	assert.Equal(t, 0, store.Size())
	assert.Equal(t, [][]int{{B}}, p.removed)
}

func TestGalleryService_CloseOutOfSyncSessionKeepsItForResync(t *testing.T) {
	p := newFakeProvider(A, B, C)
	svc, store := newService(t, p)
	ctx := context.Background()
	id, _, err := svc.OpenSession(ctx)
	require.NoError(t, err)

	p.fail(errStoreDown)
	_, err = svc.ToggleSelection(id, B)
	require.NoError(t, err)
	_, err = svc.DeleteSelected(ctx, id)
	require.ErrorIs(t, err, ErrProviderSync)

	err = svc.CloseSession(ctx, id)
	assert.ErrorIs(t, err, ErrProviderSync)
	_, err = svc.GetView(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, 1, store.Size())
	assert.Equal(t, 0, store.cleanup())

	p.fail(nil)
	synced, failed := svc.ResyncAll(ctx)
	assert.Equal(t, 1, synced)
	assert.Equal(t, 0, failed)
	assert.Equal(t, [][]int{{B}}, p.removed)
	assert.Equal(t, []int{A, C}, imageIDs(p.images))
	assert.Equal(t, 0, store.Size())
}

func TestGalleryService_UnknownSession(t *testing.T) {
	svc, _ := newService(t, newFakeProvider(A))

	_, err := svc.ToggleSelection(uuid.New(), A)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, _, err = svc.Watch(uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestGalleryService_OpenSessionLoadError(t *testing.T) {
	p := newFakeProvider(A)
	p.getErr = errStoreDown
	svc, store := newService(t, p)

	_, _, err := svc.OpenSession(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, store.Size())
}

func TestGalleryService_ProviderFailureReturnsCommittedView(t *testing.T) {
	p := newFakeProvider(A, B, C)
	svc, _ := newService(t, p)
	ctx := context.Background()
	id, _, err := svc.OpenSession(ctx)
	require.NoError(t, err)

	p.fail(errStoreDown)
	_, err = svc.ToggleSelection(id, A)
	require.NoError(t, err)
	view, err := svc.DeleteSelected(ctx, id)

	assert.ErrorIs(t, err, ErrProviderSync)
	assert.Equal(t, []int{B, C}, itemIDs(view))
	assert.True(t, view.OutOfSync)

	synced, failed := svc.ResyncAll(ctx)
	assert.Equal(t, 0, synced)
	assert.Equal(t, 1, failed)

	p.fail(nil)
	synced, failed = svc.ResyncAll(ctx)
	assert.Equal(t, 1, synced)
	assert.Equal(t, 0, failed)

	view, err = svc.GetView(id)
	require.NoError(t, err)
	assert.False(t, view.OutOfSync)
	assert.Equal(t, [][]int{{A}}, p.removed)
}

func TestGalleryService_Watch(t *testing.T) {
	svc, _ := newService(t, newFakeProvider(A, B))
	id, _, err := svc.OpenSession(context.Background())
	require.NoError(t, err)

	views, stop, err := svc.Watch(id)
	require.NoError(t, err)

	first := <-views
	assert.Equal(t, "Gallery", first.ToolbarLabel)

	_, err = svc.ToggleSelection(id, A)
	require.NoError(t, err)
	_, err = svc.ToggleSelection(id, B)
	require.NoError(t, err)

	// only the latest view is kept for a slow reader
	latest := <-views
	assert.Equal(t, "2 Files Selected", latest.ToolbarLabel)

	stop()
	_, err = svc.ClearSelection(id)
	require.NoError(t, err)
	select {
	case v := <-views:
		t.Fatalf("unexpected view after stop: %+v", v)
	default:
	}
}

func TestGalleryService_ConcurrentEventsAreSerialised(t *testing.T) {
	ids := []int{A, B, C, D, E}
	svc, _ := newService(t, newFakeProvider(ids...))
	id, _, err := svc.OpenSession(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.ToggleSelection(id, ids[i%len(ids)])
		}(i)
	}
	wg.Wait()

	// every id was toggled an even number of times
	view, err := svc.GetView(id)
	require.NoError(t, err)
	assert.Equal(t, 0, view.SelectedCount)
	assert.Equal(t, uint64(50), view.Revision)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(time.Minute, 0)
	now := time.Now()
	store.now = func() time.Time { return now }

	g, _ := newController(t, newFakeProvider(A))
	sess := store.Add(g)

	_, ok := store.Get(sess.ID)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)

	assert.Equal(t, 1, store.cleanup())
	assert.Equal(t, 0, store.Size())
}

func TestSessionStore_CleanupKeepsOutOfSync(t *testing.T) {
	store := NewSessionStore(time.Minute, 0)
	now := time.Now()
	store.now = func() time.Time { return now }

	p := newFakeProvider(A, B)
	g, _ := newController(t, p)
	p.fail(errStoreDown)
	g.ToggleSelection(A)
	_, _ = g.DeleteSelected(context.Background())
	store.Add(g)

	now = now.Add(time.Hour)
	assert.Equal(t, 0, store.cleanup())
	assert.Equal(t, 1, store.Size())
}

func TestSessionStore_CleanupLoopStops(t *testing.T) {
	store := NewSessionStore(time.Millisecond, time.Millisecond)
	g, _ := newController(t, newFakeProvider(A))
	store.Add(g)

	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 5*time.Millisecond)
	store.Stop()
	store.Stop()
}

func itemIDs(v View) []int {
	ids := make([]int, len(v.Items))
	for i, it := range v.Items {
		ids[i] = it.ID
	}
	return ids
}
