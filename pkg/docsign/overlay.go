package docsign

import (
	"math"
	"sync"
)

// Overlay positions the signature artifact over the rendered page. The committed position only
// changes when a drag gesture ends.
type Overlay struct {
	bounds func() Size

	mu        sync.Mutex
	position  Position
	dragging  bool
	dragStart Position
	dragDelta Position
}

// NewOverlay creates an overlay bounded by the size reported by bounds.
func NewOverlay(bounds func() Size) *Overlay {
	o := &Overlay{bounds: bounds}
	o.position = o.clamp(DefaultPosition, bounds())
	return o
}

// An unmeasured page (zero size) only bounds the position from below.
func (o *Overlay) clamp(p Position, bounds Size) Position {
	p = Position{X: math.Max(p.X, 0), Y: math.Max(p.Y, 0)}
	if bounds.IsZero() {
		return p
	}
	return Position{
		X: math.Min(p.X, bounds.Width),
		Y: math.Min(p.Y, bounds.Height),
	}
}

func (o *Overlay) Position() Position {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

// PositionWithin is the committed position clamped to size.
func (o *Overlay) PositionWithin(size Size) Position {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clamp(o.position, size)
}

func (o *Overlay) Dragging() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dragging
}

func (o *Overlay) BeginDrag() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dragging = true
	o.dragStart = o.position
	o.dragDelta = Position{}
}

// DragBy records intermediate movement without committing it.
func (o *Overlay) DragBy(dx, dy float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.dragging {
		return
	}
	o.dragDelta.X += dx
	o.dragDelta.Y += dy
}

// EndDrag commits the dragged position, kept inside the page.
func (o *Overlay) EndDrag() Position {
	bounds := o.bounds()

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.dragging {
		return o.position
	}
	o.dragging = false
	o.position = o.clamp(Position{
		X: o.dragStart.X + o.dragDelta.X,
		Y: o.dragStart.Y + o.dragDelta.Y,
	}, bounds)
	o.dragDelta = Position{}
	return o.position
}

// MoveTo performs a whole drag gesture ending at p.
func (o *Overlay) MoveTo(p Position) Position {
	o.BeginDrag()
	o.mu.Lock()
	o.dragDelta = Position{X: p.X - o.dragStart.X, Y: p.Y - o.dragStart.Y}
	o.mu.Unlock()
	return o.EndDrag()
}

func (o *Overlay) Reset() {
	bounds := o.bounds()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.dragging = false
	o.dragDelta = Position{}
	o.position = o.clamp(DefaultPosition, bounds)
}

// Reclamp pulls the committed position back inside a new page size.
func (o *Overlay) Reclamp(size Size) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = o.clamp(o.position, size)
}
