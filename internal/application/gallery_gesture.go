package application

import (
	"context"
	"math"
)

// GestureHandler consumes drag lifecycle events. GalleryController
// implements it.
type GestureHandler interface {
	DragStart(ev DragStartEvent)
	DragEnd(ctx context.Context, ev DragEndEvent) (bool, error)
	DragCancel()
}

// GestureSource is a drag engine that delivers events to a bound handler.
type GestureSource interface {
	Bind(h GestureHandler)
}

type PointerKind int

const (
	PointerMouse PointerKind = iota
	PointerTouch
)

// ActivationConstraint is how far a press must travel before it counts as a
// drag rather than a tap.
type ActivationConstraint struct {
	Distance float64
}

var DefaultActivation = ActivationConstraint{Distance: 10}

type Point struct {
	X, Y float64
}

// Rect is the on-screen box of one droppable item.
type Rect struct {
	ID     int
	X, Y   float64
	Width  float64
	Height float64
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// CollisionFunc picks the droppable under p.
type CollisionFunc func(rects []Rect, p Point) (int, bool)

// ClosestCenter returns the id of the rect whose centre is nearest p. Ties go
// to the earlier rect.
func ClosestCenter(rects []Rect, p Point) (int, bool) {
	best, found := 0, false
	bestDist := math.Inf(1)
	for _, r := range rects {
		c := r.Center()
		d := math.Hypot(c.X-p.X, c.Y-p.Y)
		if d < bestDist {
			best, bestDist, found = r.ID, d, true
		}
	}
	return best, found
}

type press struct {
	kind   PointerKind
	id     int
	url    string
	origin Point
}

// PointerSensor turns raw mouse and touch samples into drag events. Both
// pointer kinds share one activation constraint unless overridden.
type PointerSensor struct {
	activation map[PointerKind]ActivationConstraint
	rects      func() []Rect
	collide    CollisionFunc
	handler    GestureHandler

	pressed  *press
	dragging bool
}

type SensorOption func(*PointerSensor)

func WithActivation(kind PointerKind, c ActivationConstraint) SensorOption {
	return func(s *PointerSensor) {
		s.activation[kind] = c
	}
}

func WithCollision(fn CollisionFunc) SensorOption {
	return func(s *PointerSensor) {
		s.collide = fn
	}
}

// NewPointerSensor builds a sensor that asks rects for the current droppable
// layout on every drop.
func NewPointerSensor(rects func() []Rect, opts ...SensorOption) *PointerSensor {
	s := &PointerSensor{
		activation: map[PointerKind]ActivationConstraint{
			PointerMouse: DefaultActivation,
			PointerTouch: DefaultActivation,
		},
		rects:   rects,
		collide: ClosestCenter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PointerSensor) Bind(h GestureHandler) {
	s.handler = h
}

func (s *PointerSensor) Dragging() bool {
	return s.dragging
}

// Down records a press on item id. Any press already in progress is
// cancelled first.
func (s *PointerSensor) Down(kind PointerKind, id int, url string, p Point) {
	if s.pressed != nil {
		s.Cancel()
	}
	s.pressed = &press{kind: kind, id: id, url: url, origin: p}
}

// Move activates the drag once the press has travelled far enough.
func (s *PointerSensor) Move(p Point) {
	if s.pressed == nil || s.dragging {
		return
	}
	limit := s.activation[s.pressed.kind].Distance
	if math.Hypot(p.X-s.pressed.origin.X, p.Y-s.pressed.origin.Y) < limit {
		return
	}
	s.dragging = true
	if s.handler != nil {
		s.handler.DragStart(DragStartEvent{ID: s.pressed.id, URL: s.pressed.url})
	}
}

// Up ends the press. A press that never activated is a tap and emits
// nothing.
func (s *PointerSensor) Up(ctx context.Context, p Point) (bool, error) {
	pr, dragging := s.pressed, s.dragging
	s.pressed, s.dragging = nil, false
	if pr == nil || !dragging || s.handler == nil {
		return false, nil
	}

	ev := DragEndEvent{ActiveID: pr.id}
	var rects []Rect
	if s.rects != nil {
		rects = s.rects()
	}
	if over, ok := s.collide(rects, p); ok {
		ev.OverID = &over
	}
	return s.handler.DragEnd(ctx, ev)
}

// Cancel aborts the press, e.g. on escape.
func (s *PointerSensor) Cancel() {
	dragging := s.dragging
	s.pressed, s.dragging = nil, false
	if dragging && s.handler != nil {
		s.handler.DragCancel()
	}
}
