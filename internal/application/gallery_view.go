package application

import "fmt"

const defaultToolbarLabel = "Gallery"

type ItemView struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	AltText  string `json:"alt_text"`
	Selected bool   `json:"selected"`
	Dragging bool   `json:"dragging"`
}

// View is everything the presentation layer needs to render the grid.
type View struct {
	Items               []ItemView `json:"items"`
	SelectedCount       int        `json:"selected_count"`
	ToolbarLabel        string     `json:"toolbar_label"`
	ShowDeleteButton    bool       `json:"show_delete_button"`
	ShowUnselectControl bool       `json:"show_unselect_control"`
	Overlay             *Overlay   `json:"overlay,omitempty"`
	Revision            uint64     `json:"revision"`
	OutOfSync           bool       `json:"out_of_sync"`
}

func ToolbarLabel(selected int) string {
	if selected == 0 {
		return defaultToolbarLabel
	}
	return fmt.Sprintf("%d Files Selected", selected)
}

// BuildView derives the view from the three pieces of gallery state.
func BuildView(c *OrderedCollection, s *SelectionSet, d *DragSession) View {
	overlay, dragging := d.Overlay()

	items := make([]ItemView, 0, c.Len())
	for _, img := range c.items {
		items = append(items, ItemView{
			ID:       img.ID,
			URL:      img.URL,
			AltText:  img.AltText,
			Selected: s.IsSelected(img.ID),
			Dragging: dragging && overlay.ID == img.ID,
		})
	}

	n := s.Len()
	v := View{
		Items:               items,
		SelectedCount:       n,
		ToolbarLabel:        ToolbarLabel(n),
		ShowDeleteButton:    n > 0,
		ShowUnselectControl: n > 0,
	}
	if dragging {
		v.Overlay = &overlay
	}
	return v
}
