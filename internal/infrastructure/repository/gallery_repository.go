package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Maxito7/gallery_backend/internal/domain"
	"github.com/lib/pq"
)

// GalleryRepository is the Postgres image provider backed by gallery_images.
type GalleryRepository struct {
	db *sql.DB
}

func NewGalleryRepository(db *sql.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

func (r *GalleryRepository) GetAll(ctx context.Context) ([]domain.GalleryImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, alt_text, sort_order, is_active, created_at
		FROM gallery_images
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.GalleryImage
	for rows.Next() {
		var img domain.GalleryImage
		if err := rows.Scan(&img.ID, &img.URL, &img.AltText, &img.SortOrder, &img.IsActive, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ReplaceAll stores the given order: every image gets sort_order equal to its
// position. Images missing from the table are skipped.
func (r *GalleryRepository) ReplaceAll(ctx context.Context, images []domain.GalleryImage) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "UPDATE gallery_images SET sort_order = $1 WHERE id = $2")
	if err != nil {
		return fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()

	for pos, img := range images {
		if _, err = stmt.ExecContext(ctx, pos, img.ID); err != nil {
			return fmt.Errorf("update sort_order of image %d: %w", img.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// RemoveByIDs deletes the given images. Ids that are already gone are
// ignored.
func (r *GalleryRepository) RemoveByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM gallery_images WHERE id = ANY($1)", pq.Array(keys))
	return err
}
