package docsign

import (
	"math"
	"sync"
	"time"
)

// Viewport is the on-screen container holding the rasterized page.
type Viewport interface {
	// RenderedSize is the container's current pixel size.
	RenderedSize() Size
	// OnResize registers fn for resize events and returns its deregistration.
	OnResize(fn func()) (unsubscribe func())
}

// StaticViewport is a Viewport whose size is set by its owner, e.g. a CLI zoom flag.
type StaticViewport struct {
	mu        sync.Mutex
	size      Size
	nextID    int
	listeners map[int]func()
}

func NewStaticViewport(size Size) *StaticViewport {
	return &StaticViewport{size: size, listeners: make(map[int]func())}
}

func (v *StaticViewport) RenderedSize() Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// Resize changes the size and fires the resize listeners.
func (v *StaticViewport) Resize(size Size) {
	v.mu.Lock()
	v.size = size
	fns := make([]func(), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (v *StaticViewport) OnResize(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.listeners[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

func (v *StaticViewport) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

// FitWidth scales a page to the given container width, keeping its aspect ratio.
func FitWidth(page Size, width float64) Size {
	if page.IsZero() || width <= 0 {
		return Size{}
	}
	return Size{Width: width, Height: math.Round(page.Height * width / page.Width)}
}

// Scheduler defers measurement callbacks.
type Scheduler interface {
	NextFrame(fn func()) (cancel func())
	After(d time.Duration, fn func()) (cancel func())
}

// ~60 fps
const frameInterval = 16 * time.Millisecond

type timerScheduler struct{}

func (timerScheduler) NextFrame(fn func()) func() {
	return timerScheduler{}.After(frameInterval, fn)
}

func (timerScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
