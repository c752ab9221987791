package application

import (
	"context"
	"errors"
	"sync"

	"github.com/Maxito7/gallery_backend/internal/domain"
)

var errStoreDown = errors.New("store down")

type fakeProvider struct {
	mu       sync.Mutex
	images   []domain.GalleryImage
	getErr   error
	writeErr error

	replaced [][]int
	removed  [][]int
}

func newFakeProvider(ids ...int) *fakeProvider {
	p := &fakeProvider{}
	for i, id := range ids {
		p.images = append(p.images, domain.GalleryImage{
			ID:        id,
			URL:       imageURL(id),
			SortOrder: i,
			IsActive:  true,
		})
	}
	return p
}

func imageURL(id int) string {
	return "https://photos.s3.amazonaws.com/" + string(rune('a'+id-1)) + ".jpg"
}

func (p *fakeProvider) GetAll(context.Context) ([]domain.GalleryImage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	out := make([]domain.GalleryImage, len(p.images))
	copy(out, p.images)
	return out, nil
}

func (p *fakeProvider) ReplaceAll(_ context.Context, images []domain.GalleryImage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.replaced = append(p.replaced, imageIDs(images))
	p.images = append([]domain.GalleryImage(nil), images...)
	return nil
}

func (p *fakeProvider) RemoveByIDs(_ context.Context, ids []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.removed = append(p.removed, append([]int(nil), ids...))
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := p.images[:0]
	for _, img := range p.images {
		if !drop[img.ID] {
			kept = append(kept, img)
		}
	}
	p.images = kept
	return nil
}

func (p *fakeProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

func imageIDs(images []domain.GalleryImage) []int {
	ids := make([]int, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	return ids
}

func images(ids ...int) []domain.GalleryImage {
	out := make([]domain.GalleryImage, len(ids))
	for i, id := range ids {
		out[i] = domain.GalleryImage{ID: id, URL: imageURL(id)}
	}
	return out
}

func set(ids ...int) map[int]struct{} {
	out := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func intp(v int) *int { return &v }

type recordingReporter struct {
	ops []string
}

func (r *recordingReporter) ReportSyncFailure(_ context.Context, op string, _ error) {
	r.ops = append(r.ops, op)
}
