package application

import (
	"context"
	"log"

	"github.com/Maxito7/gallery_backend/internal/domain"
)

// CleanupProvider removes the stored objects of deleted images after the
// provider has dropped their rows.
type CleanupProvider struct {
	domain.ImageProvider
	objects domain.ImageObjectStore
}

func NewCleanupProvider(inner domain.ImageProvider, objects domain.ImageObjectStore) *CleanupProvider {
	return &CleanupProvider{ImageProvider: inner, objects: objects}
}

func (p *CleanupProvider) RemoveByIDs(ctx context.Context, ids []int) error {
	urls := p.urlsFor(ctx, ids)

	if err := p.ImageProvider.RemoveByIDs(ctx, ids); err != nil {
		return err
	}

	if len(urls) == 0 {
		return nil
	}
	// the rows are gone, a leftover object is only wasted space
	if err := p.objects.DeleteImages(ctx, urls); err != nil {
		log.Printf("gallery: could not delete %d stored objects: %v", len(urls), err)
	}
	return nil
}

func (p *CleanupProvider) urlsFor(ctx context.Context, ids []int) []string {
	images, err := p.ImageProvider.GetAll(ctx)
	if err != nil {
		log.Printf("gallery: could not look up urls before removal: %v", err)
		return nil
	}

	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var urls []string
	for _, img := range images {
		if _, ok := want[img.ID]; ok && img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
