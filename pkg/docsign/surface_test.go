package docsign

import (
	"bytes"
	"testing"
)

func newTestSurface(t *testing.T, v Viewport) (*RenderSurface, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	s := NewRenderSurface(fakeRenderer{pages: []Size{{Width: 612, Height: 792}, {Width: 792, Height: 612}}}, v, SurfaceOptions{Scheduler: sched})
	t.Cleanup(s.Close)
	return s, sched
}

func TestSurfaceMeasuresTwiceAfterLoad(t *testing.T) {
	v := NewStaticViewport(Size{Width: 600, Height: 776})
	s, sched := newTestSurface(t, v)

	commits := 0
	s.OnMeasure(func(PageRenderState) { commits++ })

	if err := s.Load(bytes.NewReader([]byte("%PDF"))); err != nil {
		t.Fatal(err)
	}

	pending := sched.pending()
	if len(pending) != 2 {
		t.Fatalf("expected two scheduled measurements, got %d", len(pending))
	}
	if pending[0].delay != 0 || pending[1].delay != DefaultSettleDelay {
		t.Errorf("unexpected delays %v, %v", pending[0].delay, pending[1].delay)
	}

	sched.run()
	if commits != 1 {
		t.Errorf("expected a single commit for an unchanged size, got %d", commits)
	}
	if st := s.State(); st.RenderedWidth != 600 || st.RenderedHeight != 776 || st.PageNumber != 1 {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestSurfaceCommitsOnlyOnChange(t *testing.T) {
	v := NewStaticViewport(Size{Width: 600, Height: 776})
	s, sched := newTestSurface(t, v)
	if err := s.Load(bytes.NewReader(nil)); err != nil {
		t.Fatal(err)
	}
	sched.run()

	if s.CommitMeasurement() {
		t.Error("expected no commit for an unchanged size")
	}

	commits := 0
	s.OnMeasure(func(PageRenderState) { commits++ })

	v.Resize(Size{Width: 300, Height: 388})
	v.Resize(Size{Width: 300, Height: 388})
	if commits != 1 {
		t.Errorf("expected one commit for one size change, got %d", commits)
	}
	if s.State().Size() != (Size{Width: 300, Height: 388}) {
		t.Errorf("unexpected committed size %v", s.State().Size())
	}
}

func TestSurfaceCloseDeregisters(t *testing.T) {
	v := NewStaticViewport(Size{Width: 600, Height: 776})
	s, sched := newTestSurface(t, v)
	if err := s.Load(bytes.NewReader(nil)); err != nil {
		t.Fatal(err)
	}
	if v.ListenerCount() != 1 {
		t.Fatalf("expected one resize listener, got %d", v.ListenerCount())
	}

	s.Close()
	if v.ListenerCount() != 0 {
		t.Errorf("expected resize listener to be removed, got %d", v.ListenerCount())
	}
	for _, c := range sched.pending() {
		if !c.cancelled {
			t.Error("expected pending measurements to be cancelled")
		}
	}

	sched.run()
	if !s.State().Size().IsZero() {
		t.Errorf("expected no measurement after close, got %v", s.State().Size())
	}
	s.Close()
}

func TestSurfaceReloadSubscribesOnce(t *testing.T) {
	v := NewStaticViewport(Size{Width: 600, Height: 776})
	s, sched := newTestSurface(t, v)

	for i := 0; i < 3; i++ {
		if err := s.Load(bytes.NewReader(nil)); err != nil {
			t.Fatal(err)
		}
	}
	if v.ListenerCount() != 1 {
		t.Errorf("expected a single resize listener, got %d", v.ListenerCount())
	}

	cancelled := 0
	for _, c := range sched.pending() {
		if c.cancelled {
			cancelled++
		}
	}
	if cancelled != 4 {
		t.Errorf("expected superseded measurements to be cancelled, got %d", cancelled)
	}
}

func TestSurfacePages(t *testing.T) {
	v := NewStaticViewport(Size{Width: 600, Height: 776})
	s, _ := newTestSurface(t, v)

	if err := s.SetPage(1); err == nil {
		t.Error("expected SetPage to fail before load")
	}
	if err := s.Load(bytes.NewReader(nil)); err != nil {
		t.Fatal(err)
	}
	if s.PageCount() != 2 {
		t.Errorf("expected 2 pages, got %d", s.PageCount())
	}
	if err := s.SetPage(3); err == nil {
		t.Error("expected out of range page to be rejected")
	}
	if err := s.SetPage(2); err != nil {
		t.Fatal(err)
	}
	size, err := s.PageSize()
	if err != nil || size != (Size{Width: 792, Height: 612}) {
		t.Errorf("PageSize() = %v, %v", size, err)
	}

	img, err := s.Rasterize()
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 600 || img.Bounds().Dy() != 776 {
		t.Errorf("expected raster at the viewport size, got %v", img.Bounds())
	}
}
