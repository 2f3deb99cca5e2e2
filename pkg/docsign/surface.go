package docsign

import (
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSettleDelay = 500 * time.Millisecond

type PageRenderState struct {
	PageNumber     int
	RenderedWidth  float64
	RenderedHeight float64
}

func (s PageRenderState) Size() Size {
	return Size{Width: s.RenderedWidth, Height: s.RenderedHeight}
}

type SurfaceOptions struct {
	Scheduler   Scheduler
	SettleDelay time.Duration
	Logger      *zap.SugaredLogger
}

// RenderSurface adapts a Renderer and tracks the rendered (on-screen) size of the current page.
type RenderSurface struct {
	renderer    Renderer
	viewport    Viewport
	scheduler   Scheduler
	settleDelay time.Duration
	logger      *zap.SugaredLogger

	mu          sync.Mutex
	doc         RenderedDocument
	state       PageRenderState
	pending     []func()
	unsubscribe func()
	listeners   []func(PageRenderState)
	closed      bool
}

func NewRenderSurface(renderer Renderer, viewport Viewport, opts SurfaceOptions) *RenderSurface {
	if opts.Scheduler == nil {
		opts.Scheduler = timerScheduler{}
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &RenderSurface{
		renderer:    renderer,
		viewport:    viewport,
		scheduler:   opts.Scheduler,
		settleDelay: opts.SettleDelay,
		logger:      opts.Logger,
		state:       PageRenderState{PageNumber: 1},
	}
}

// Load opens a document and schedules the post-load measurements.
func (s *RenderSurface) Load(rs io.ReadSeeker) error {
	doc, err := s.renderer.Open(rs)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("render surface is closed")
	}

	s.doc = doc
	if s.state.PageNumber < 1 || s.state.PageNumber > doc.PageCount() {
		s.state.PageNumber = 1
	}

	if s.unsubscribe == nil {
		s.unsubscribe = s.viewport.OnResize(func() { s.CommitMeasurement() })
	}

	s.cancelPendingLocked()
	// Layout may not have settled on the first frame; measure again after a delay.
	s.pending = append(s.pending,
		s.scheduler.NextFrame(func() { s.CommitMeasurement() }),
		s.scheduler.After(s.settleDelay, func() { s.CommitMeasurement() }),
	)
	s.mu.Unlock()

	s.logger.Debugf("Loaded document with %d page(s)", doc.PageCount())
	return nil
}

func (s *RenderSurface) cancelPendingLocked() {
	for _, cancel := range s.pending {
		cancel()
	}
	s.pending = nil
}

// CommitMeasurement reads the viewport and stores the size only when it differs from the last
// committed one. It reports whether a change was committed.
func (s *RenderSurface) CommitMeasurement() bool {
	size := s.viewport.RenderedSize()

	s.mu.Lock()
	if s.closed || (size.Width == s.state.RenderedWidth && size.Height == s.state.RenderedHeight) {
		s.mu.Unlock()
		return false
	}

	s.state.RenderedWidth = size.Width
	s.state.RenderedHeight = size.Height
	state := s.state
	listeners := append([]func(PageRenderState){}, s.listeners...)
	s.mu.Unlock()

	s.logger.Debugf("Committed page measurement %.0fx%.0f", size.Width, size.Height)
	for _, fn := range listeners {
		fn(state)
	}
	return true
}

// OnMeasure registers fn to be called after each committed measurement change.
func (s *RenderSurface) OnMeasure(fn func(PageRenderState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State is the last committed measurement.
func (s *RenderSurface) State() PageRenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentSize reads the live viewport, bypassing the committed measurement.
func (s *RenderSurface) CurrentSize() Size {
	return s.viewport.RenderedSize()
}

func (s *RenderSurface) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil
}

func (s *RenderSurface) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0
	}
	return s.doc.PageCount()
}

func (s *RenderSurface) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PageNumber
}

func (s *RenderSurface) SetPage(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return fmt.Errorf("no document loaded")
	}
	if page < 1 || page > s.doc.PageCount() {
		return fmt.Errorf("page %d out of range [1, %d]", page, s.doc.PageCount())
	}
	s.state.PageNumber = page
	return nil
}

// PageSize is the intrinsic size of the current page in points.
func (s *RenderSurface) PageSize() (Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return Size{}, fmt.Errorf("no document loaded")
	}
	return s.doc.PageSize(s.state.PageNumber)
}

// Rasterize draws the current page at the viewport's current size.
func (s *RenderSurface) Rasterize() (image.Image, error) {
	size := s.CurrentSize()

	s.mu.Lock()
	doc, page := s.doc, s.state.PageNumber
	s.mu.Unlock()

	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return doc.Rasterize(page, int(math.Round(size.Width)), int(math.Round(size.Height)))
}

// Close cancels pending measurements and deregisters the resize listener.
func (s *RenderSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancelPendingLocked()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
