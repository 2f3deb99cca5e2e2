package docsign

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeRenderer struct {
	pages []Size
}

func (r fakeRenderer) Open(rs io.ReadSeeker) (RenderedDocument, error) {
	if _, err := io.ReadAll(rs); err != nil {
		return nil, err
	}
	return &pdfDocument{pages: r.pages}, nil
}

type scheduledCall struct {
	fn        func()
	delay     time.Duration
	cancelled bool
}

// fakeScheduler queues callbacks until run is called.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []*scheduledCall
}

func (s *fakeScheduler) add(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &scheduledCall{fn: fn, delay: d}
	s.calls = append(s.calls, c)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.cancelled = true
	}
}

func (s *fakeScheduler) NextFrame(fn func()) func() {
	return s.add(0, fn)
}

func (s *fakeScheduler) After(d time.Duration, fn func()) func() {
	return s.add(d, fn)
}

func (s *fakeScheduler) run() {
	s.mu.Lock()
	calls := s.calls
	s.calls = nil
	s.mu.Unlock()

	for _, c := range calls {
		s.mu.Lock()
		cancelled := c.cancelled
		s.mu.Unlock()
		if !cancelled {
			c.fn()
		}
	}
}

func (s *fakeScheduler) pending() []*scheduledCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*scheduledCall{}, s.calls...)
}

// quietViewport changes size without firing resize events.
type quietViewport struct {
	mu   sync.Mutex
	size Size
}

func (v *quietViewport) RenderedSize() Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

func (v *quietViewport) set(size Size) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
}

func (v *quietViewport) OnResize(fn func()) func() {
	return func() {}
}

type fakeStore struct {
	mu          sync.Mutex
	signErr     error
	statusErr   error
	signCalls   int
	statusCalls int
	getCalls    int
	lastReq     *PlacementRequest
	// when set, SignDocument blocks until it is closed
	block   chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return &Document{ID: id, Name: "contract.pdf", Status: DocumentStatusPending}, nil
}

func (f *fakeStore) ViewDocument(ctx context.Context, id string) ([]byte, error) {
	return []byte("%PDF-1.7 fake"), nil
}

func (f *fakeStore) SignDocument(ctx context.Context, req *PlacementRequest) (*Document, error) {
	f.mu.Lock()
	f.signCalls++
	f.lastReq = req
	block, entered, err := f.block, f.entered, f.signErr
	f.mu.Unlock()

	if block != nil {
		if entered != nil {
			close(entered)
		}
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &Document{ID: req.DocumentID, Status: DocumentStatusSigned}, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status DocumentStatus) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &Document{ID: id, Status: status}, nil
}

func (f *fakeStore) counts() (sign, status, get int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signCalls, f.statusCalls, f.getCalls
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(w/2, h/2, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func hasInk(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}
