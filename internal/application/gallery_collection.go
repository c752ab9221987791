package application

import "github.com/Maxito7/gallery_backend/internal/domain"

// OrderedCollection is the canonical display order of the gallery.
type OrderedCollection struct {
	items []domain.GalleryImage
	index map[int]int
}

func NewOrderedCollection(images []domain.GalleryImage) *OrderedCollection {
	c := &OrderedCollection{}
	c.reset(images)
	return c
}

// reset copies images, dropping any repeated id so ids stay unique.
func (c *OrderedCollection) reset(images []domain.GalleryImage) {
	c.items = make([]domain.GalleryImage, 0, len(images))
	c.index = make(map[int]int, len(images))
	for _, img := range images {
		if _, dup := c.index[img.ID]; dup {
			continue
		}
		c.index[img.ID] = len(c.items)
		c.items = append(c.items, img)
	}
}

func (c *OrderedCollection) reindex(from int) {
	for i := from; i < len(c.items); i++ {
		c.index[c.items[i].ID] = i
	}
}

func (c *OrderedCollection) Len() int {
	return len(c.items)
}

// IndexOf returns the position of id, or false when it is not in the collection.
func (c *OrderedCollection) IndexOf(id int) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

func (c *OrderedCollection) Contains(id int) bool {
	_, ok := c.index[id]
	return ok
}

// Get returns the image with the given id.
func (c *OrderedCollection) Get(id int) (domain.GalleryImage, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.GalleryImage{}, false
	}
	return c.items[i], true
}

// Items returns a copy of the current order.
func (c *OrderedCollection) Items() []domain.GalleryImage {
	out := make([]domain.GalleryImage, len(c.items))
	copy(out, c.items)
	return out
}

func (c *OrderedCollection) IDs() []int {
	ids := make([]int, len(c.items))
	for i, img := range c.items {
		ids[i] = img.ID
	}
	return ids
}

// MoveItem moves fromID to the slot currently held by toID, shifting the
// items in between by one. It reports whether the order changed.
func (c *OrderedCollection) MoveItem(fromID, toID int) bool {
	if fromID == toID {
		return false
	}
	from, ok := c.index[fromID]
	if !ok {
		return false
	}
	to, ok := c.index[toID]
	if !ok {
		return false
	}

	moved := c.items[from]
	if from < to {
		copy(c.items[from:to], c.items[from+1:to+1])
	} else {
		copy(c.items[to+1:from+1], c.items[to:from])
	}
	c.items[to] = moved

	c.reindex(min(from, to))
	return true
}

// RemoveItems drops every item whose id is in ids and returns the ids that
// were actually removed, in collection order. Unknown ids are ignored.
func (c *OrderedCollection) RemoveItems(ids map[int]struct{}) []int {
	if len(ids) == 0 {
		return nil
	}

	var removed []int
	kept := c.items[:0]
	for _, img := range c.items {
		if _, drop := ids[img.ID]; drop {
			removed = append(removed, img.ID)
			delete(c.index, img.ID)
			continue
		}
		kept = append(kept, img)
	}
	if len(removed) == 0 {
		return nil
	}

	// clear the tail so dropped payloads are not retained
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = domain.GalleryImage{}
	}
	c.items = kept
	c.reindex(0)
	return removed
}

// Ordered returns the images with SortOrder set to their position.
func (c *OrderedCollection) Ordered() []domain.GalleryImage {
	out := c.Items()
	for i := range out {
		out[i].SortOrder = i
	}
	return out
}
