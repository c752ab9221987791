package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("gallery session not found")

// GalleryImage is one item of the grid. ID is stable and never reused for a
// different image; everything else is payload.
type GalleryImage struct {
	ID        int       `json:"id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageProvider supplies the initial image list and persists committed
// mutations.
type ImageProvider interface {
	GetAll(ctx context.Context) ([]GalleryImage, error)
	ReplaceAll(ctx context.Context, images []GalleryImage) error
	RemoveByIDs(ctx context.Context, ids []int) error
}

// ImageObjectStore deletes the stored content behind image URLs.
type ImageObjectStore interface {
	DeleteImages(ctx context.Context, urls []string) error
}
