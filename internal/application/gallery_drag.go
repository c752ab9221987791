package application

// DragState is the phase of a DragSession.
type DragState int

const (
	DragIdle DragState = iota
	DragActive
)

func (s DragState) String() string {
	if s == DragActive {
		return "active"
	}
	return "idle"
}

// DragStartEvent is emitted when an item is lifted. ID zero means the engine
// could not identify the item.
type DragStartEvent struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// DragEndEvent is emitted on drop. OverID is nil when the pointer was not
// over any droppable item.
type DragEndEvent struct {
	ActiveID int  `json:"active_id"`
	OverID   *int `json:"over_id,omitempty"`
}

type DragCancelEvent struct{}

// Overlay is the snapshot of the lifted item taken at drag start.
type Overlay struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// DragSession tracks at most one in-progress drag and reduces a drop into a
// move on the collection.
type DragSession struct {
	active *Overlay
}

func (d *DragSession) State() DragState {
	if d.active == nil {
		return DragIdle
	}
	return DragActive
}

// Overlay returns the lifted item while a drag is active.
func (d *DragSession) Overlay() (Overlay, bool) {
	if d.active == nil {
		return Overlay{}, false
	}
	return *d.active, true
}

// Start enters Active. A start without an id clears the session instead.
func (d *DragSession) Start(ev DragStartEvent) bool {
	if ev.ID == 0 {
		d.active = nil
		return false
	}
	d.active = &Overlay{ID: ev.ID, URL: ev.URL}
	return true
}

// End returns to Idle and applies the drop to c. A drop that does not match
// the lifted item, or lands on nothing, leaves c untouched. It reports
// whether the collection order changed.
func (d *DragSession) End(ev DragEndEvent, c *OrderedCollection) bool {
	lifted := d.active
	d.active = nil

	if lifted == nil || lifted.ID != ev.ActiveID {
		return false
	}
	if ev.ActiveID == 0 || ev.OverID == nil || *ev.OverID == 0 {
		return false
	}
	if ev.ActiveID == *ev.OverID {
		return false
	}
	return c.MoveItem(ev.ActiveID, *ev.OverID)
}

func (d *DragSession) Cancel() {
	d.active = nil
}
