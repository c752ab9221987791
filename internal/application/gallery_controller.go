package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/Maxito7/gallery_backend/internal/domain"
)

var ErrProviderSync = errors.New("image provider sync failed")

// FailureReporter receives provider failures that were not rolled back.
type FailureReporter interface {
	ReportSyncFailure(ctx context.Context, op string, err error)
}

type logReporter struct{}

func (logReporter) ReportSyncFailure(_ context.Context, op string, err error) {
	log.Printf("gallery: %s not persisted: %v", op, err)
}

// GalleryController owns the collection, the selection and the drag session
// of one gallery view. It is not safe for concurrent use; callers deliver
// events one at a time.
type GalleryController struct {
	collection *OrderedCollection
	selection  *SelectionSet
	drag       DragSession

	provider domain.ImageProvider
	reporter FailureReporter

	revision     uint64
	observers    map[int]func(View)
	nextObserver int

	pendingRemovals map[int]struct{}
	pendingOrder    bool
}

// NewGalleryController loads the initial image list from provider.
func NewGalleryController(ctx context.Context, provider domain.ImageProvider, reporter FailureReporter) (*GalleryController, error) {
	images, err := provider.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading gallery images: %w", err)
	}
	if reporter == nil {
		reporter = logReporter{}
	}
	return &GalleryController{
		collection:      NewOrderedCollection(images),
		selection:       NewSelectionSet(),
		provider:        provider,
		reporter:        reporter,
		observers:       make(map[int]func(View)),
		pendingRemovals: make(map[int]struct{}),
	}, nil
}

// Subscribe registers fn to be called with the new view after every state
// change. The returned func removes it.
func (g *GalleryController) Subscribe(fn func(View)) func() {
	id := g.nextObserver
	g.nextObserver++
	g.observers[id] = fn
	return func() {
		delete(g.observers, id)
	}
}

func (g *GalleryController) changed() {
	g.revision++
	if len(g.observers) == 0 {
		return
	}
	v := g.View()
	ids := make([]int, 0, len(g.observers))
	for id := range g.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := g.observers[id]; ok {
			fn(v)
		}
	}
}

func (g *GalleryController) View() View {
	v := BuildView(g.collection, g.selection, &g.drag)
	v.Revision = g.revision
	v.OutOfSync = g.OutOfSync()
	return v
}

func (g *GalleryController) Revision() uint64 {
	return g.revision
}

func (g *GalleryController) Images() []domain.GalleryImage {
	return g.collection.Items()
}

func (g *GalleryController) SelectedIDs() []int {
	return g.selection.IDs()
}

func (g *GalleryController) IsSelected(id int) bool {
	return g.selection.IsSelected(id)
}

func (g *GalleryController) DragState() DragState {
	return g.drag.State()
}

// ToggleSelection flips the selection of id. Ids that are not in the gallery
// are ignored.
func (g *GalleryController) ToggleSelection(id int) bool {
	if !g.collection.Contains(id) && !g.selection.IsSelected(id) {
		return false
	}
	selected := g.selection.Toggle(id)
	g.changed()
	return selected
}

func (g *GalleryController) ClearSelection() {
	if g.selection.Len() == 0 {
		return
	}
	g.selection.Clear()
	g.changed()
}

// DeleteSelected prunes the selected images and clears the selection in one
// step, then asks the provider to remove them. On provider failure the local
// state stays committed and the removal is kept for Resync.
func (g *GalleryController) DeleteSelected(ctx context.Context) ([]int, error) {
	if g.selection.Len() == 0 {
		return nil, nil
	}

	removed := g.collection.RemoveItems(g.selection.Set())
	g.selection.Clear()
	if o, ok := g.drag.Overlay(); ok && !g.collection.Contains(o.ID) {
		g.drag.Cancel()
	}
	g.changed()

	if len(removed) == 0 {
		return nil, nil
	}
	if err := g.provider.RemoveByIDs(ctx, removed); err != nil {
		for _, id := range removed {
			g.pendingRemovals[id] = struct{}{}
		}
		g.reporter.ReportSyncFailure(ctx, "delete", err)
		return removed, fmt.Errorf("%w: removing %d images: %w", ErrProviderSync, len(removed), err)
	}
	return removed, nil
}

// DragStart lifts an item. Events for unknown items are treated as a cancel.
func (g *GalleryController) DragStart(ev DragStartEvent) {
	img, ok := g.collection.Get(ev.ID)
	if !ok {
		ev.ID = 0
	} else if ev.URL == "" {
		ev.URL = img.URL
	}
	g.drag.Start(ev)
	g.changed()
}

// DragEnd drops the lifted item and, when the order changed, pushes the new
// order to the provider. It reports whether the order changed.
func (g *GalleryController) DragEnd(ctx context.Context, ev DragEndEvent) (bool, error) {
	moved := g.drag.End(ev, g.collection)
	g.changed()
	if !moved {
		return false, nil
	}

	if err := g.provider.ReplaceAll(ctx, g.collection.Ordered()); err != nil {
		g.pendingOrder = true
		g.reporter.ReportSyncFailure(ctx, "reorder", err)
		return true, fmt.Errorf("%w: saving order: %w", ErrProviderSync, err)
	}
	g.pendingOrder = false
	return true, nil
}

func (g *GalleryController) DragCancel() {
	g.drag.Cancel()
	g.changed()
}

func (g *GalleryController) OutOfSync() bool {
	return g.pendingOrder || len(g.pendingRemovals) > 0
}

// Resync retries provider writes that failed earlier: pending removals
// first, then the full order.
func (g *GalleryController) Resync(ctx context.Context) error {
	if !g.OutOfSync() {
		return nil
	}

	if len(g.pendingRemovals) > 0 {
		ids := make([]int, 0, len(g.pendingRemovals))
		for id := range g.pendingRemovals {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		if err := g.provider.RemoveByIDs(ctx, ids); err != nil {
			return fmt.Errorf("%w: removing %d images: %w", ErrProviderSync, len(ids), err)
		}
		g.pendingRemovals = make(map[int]struct{})
	}

	if g.pendingOrder {
		if err := g.provider.ReplaceAll(ctx, g.collection.Ordered()); err != nil {
			return fmt.Errorf("%w: saving order: %w", ErrProviderSync, err)
		}
		g.pendingOrder = false
	}

	g.changed()
	return nil
}
