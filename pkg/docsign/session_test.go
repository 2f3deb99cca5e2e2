package docsign

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

type testSession struct {
	*Session
	store     *fakeStore
	auth      *AuthContext
	viewport  *quietViewport
	scheduler *fakeScheduler
	loggedOut int
}

func newTestSession(t *testing.T, rendered Size) *testSession {
	t.Helper()

	ts := &testSession{
		store:     newFakeStore(),
		auth:      NewAuthContext("token-123"),
		viewport:  &quietViewport{size: rendered},
		scheduler: &fakeScheduler{},
	}
	ts.auth.OnLogout(func() { ts.loggedOut++ })

	s, err := NewSession("doc-1", ts.store, ts.auth, fakeRenderer{pages: []Size{{Width: 612, Height: 792}}}, ts.viewport, SessionOptions{
		Input:   InputOptions{PreviewDir: t.TempDir()},
		Surface: SurfaceOptions{Scheduler: ts.scheduler},
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(s.Close)
	ts.Session = s

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ts.scheduler.run()
	return ts
}

func drawSignature(t *testing.T, s *Session) {
	t.Helper()
	if err := s.SelectMode(SourceModeDraw); err != nil {
		t.Fatalf("SelectMode() error = %v", err)
	}
	if err := s.DrawStroke(Stroke{{X: 10, Y: 10}, {X: 80, Y: 40}, {X: 150, Y: 20}}); err != nil {
		t.Fatalf("DrawStroke() error = %v", err)
	}
}

func TestSessionDrawAndApply(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})

	if ts.State() != StateIdle {
		t.Errorf("expected idle state after open, got %s", ts.State())
	}

	drawSignature(t, ts.Session)
	if ts.State() != StateReady {
		t.Fatalf("expected ready state after drawing, got %s", ts.State())
	}
	if got := ts.Overlay().Position(); got != DefaultPosition {
		t.Errorf("expected fresh artifact at %v, got %v", DefaultPosition, got)
	}

	ts.MoveSignature(Position{X: 120, Y: 80})

	if err := ts.Apply(context.Background()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	req := ts.store.lastReq
	if req == nil {
		t.Fatal("expected a placement request to be sent")
	}
	if req.SignaturePosition != (Position{X: 120, Y: 80}) {
		t.Errorf("signaturePosition = %v, want {120 80}", req.SignaturePosition)
	}
	if req.PDFPageDimensions != (Size{Width: 600, Height: 800}) {
		t.Errorf("pdfPageDimensions = %v, want {600 800}", req.PDFPageDimensions)
	}
	if req.SignatureType != SourceModeDraw || req.SignatureFileExtension != "png" || req.PageNumber != 1 {
		t.Errorf("unexpected request metadata: %+v", req)
	}

	if ts.Artifact() != nil {
		t.Error("expected artifact to be cleared after a successful placement")
	}
	if ts.State() != StateIdle {
		t.Errorf("expected idle state after placement, got %s", ts.State())
	}
	if _, _, gets := ts.store.counts(); gets != 2 {
		t.Errorf("expected document to be fetched again after placement, got %d fetches", gets)
	}
}

func TestSessionReadsPageSizeAtSubmitTime(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	drawSignature(t, ts.Session)
	ts.MoveSignature(Position{X: 500, Y: 700})

	// The window shrinks without a resize event reaching the surface.
	ts.viewport.set(Size{Width: 300, Height: 400})

	if err := ts.Apply(context.Background()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	req := ts.store.lastReq
	if req.PDFPageDimensions != (Size{Width: 300, Height: 400}) {
		t.Errorf("expected submit-time size {300 400}, got %v", req.PDFPageDimensions)
	}
	if req.SignaturePosition.X > 300 || req.SignaturePosition.Y > 400 {
		t.Errorf("position %v escapes the current page size", req.SignaturePosition)
	}
}

func TestSessionApplyWithoutPageSizeFailsFast(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	drawSignature(t, ts.Session)
	ts.viewport.set(Size{})

	err := ts.Apply(context.Background())
	var pe *PlacementError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PlacementError, got %v", err)
	}
	if sign, _, _ := ts.store.counts(); sign != 0 {
		t.Errorf("expected no network call, got %d", sign)
	}
	if ts.Artifact() == nil {
		t.Error("expected artifact to be kept")
	}
}

func TestSessionApplyWithoutArtifact(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	if err := ts.SelectMode(SourceModeText); err != nil {
		t.Fatal(err)
	}

	if ts.CanSubmit() {
		t.Error("expected submit to be disabled without an artifact")
	}
	if err := ts.Apply(context.Background()); !IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if sign, _, _ := ts.store.counts(); sign != 0 {
		t.Errorf("expected no network call, got %d", sign)
	}
}

func TestSessionRecoverableErrorKeepsSignature(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server error", &ServerError{StatusCode: 500}},
		{"forbidden", &AuthorizationError{}},
		{"not found", &NotFoundError{}},
		{"network", &NetworkError{Err: errors.New("connection reset")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestSession(t, Size{Width: 600, Height: 800})
			ts.store.signErr = tt.err
			drawSignature(t, ts.Session)
			ts.MoveSignature(Position{X: 120, Y: 80})
			before := ts.Artifact()

			err := ts.Apply(context.Background())
			if !errors.Is(err, tt.err) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.err)
			}
			if ts.Artifact() != before {
				t.Error("expected artifact to survive a recoverable error")
			}
			if got := ts.Overlay().Position(); got != (Position{X: 120, Y: 80}) {
				t.Errorf("expected position to survive, got %v", got)
			}
			if ts.State() != StateReady {
				t.Errorf("expected ready state, got %s", ts.State())
			}
			if ts.LastError() == nil {
				t.Error("expected an inline error")
			}
			if !ts.auth.Authenticated() || ts.loggedOut != 0 {
				t.Error("expected session to stay logged in")
			}
		})
	}
}

func TestSessionAuthErrorLogsOut(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	ts.store.signErr = &AuthError{}
	drawSignature(t, ts.Session)

	err := ts.Apply(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if ts.State() != StateLoggedOut {
		t.Errorf("expected logged out state, got %s", ts.State())
	}
	if ts.Artifact() != nil {
		t.Error("expected artifact to be discarded on auth failure")
	}
	if ts.auth.Authenticated() {
		t.Error("expected token to be cleared")
	}
	if ts.loggedOut != 1 {
		t.Errorf("expected logout hook once, got %d", ts.loggedOut)
	}
}

func TestSessionIgnoresDuplicateApply(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	ts.store.block = make(chan struct{})
	ts.store.entered = make(chan struct{})
	drawSignature(t, ts.Session)

	done := make(chan error, 1)
	go func() { done <- ts.Apply(context.Background()) }()

	select {
	case <-ts.store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the store")
	}

	if ts.CanSubmit() {
		t.Error("expected submit to be disabled while in flight")
	}
	if err := ts.Apply(context.Background()); err != nil {
		t.Errorf("expected duplicate Apply to be a no-op, got %v", err)
	}

	close(ts.store.block)
	if err := <-done; err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if sign, _, _ := ts.store.counts(); sign != 1 {
		t.Errorf("expected exactly one request, got %d", sign)
	}
}

func TestSessionModeSwitchClearsState(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})

	if err := ts.SelectMode(SourceModeUpload); err != nil {
		t.Fatal(err)
	}
	data := pngBytes(t, 40, 20)
	if err := ts.UploadSignature(&UploadedFile{Name: "sig.png", ContentType: "image/png", Size: int64(len(data)), Data: data}); err != nil {
		t.Fatalf("UploadSignature() error = %v", err)
	}
	if ts.Previews().Live() != 1 {
		t.Fatalf("expected one live preview, got %d", ts.Previews().Live())
	}
	ts.MoveSignature(Position{X: 200, Y: 100})

	for _, mode := range []SourceMode{SourceModeText, SourceModeDraw, SourceModeUpload} {
		if err := ts.SelectMode(mode); err != nil {
			t.Fatal(err)
		}
		if ts.Artifact() != nil {
			t.Errorf("switching to %s: expected artifact to be cleared", mode)
		}
		if ts.Previews().Live() != 0 {
			t.Errorf("switching to %s: expected preview to be released", mode)
		}
		if got := ts.Overlay().Position(); got != DefaultPosition {
			t.Errorf("switching to %s: expected position %v, got %v", mode, DefaultPosition, got)
		}
		if ts.State() != StateCapturing {
			t.Errorf("switching to %s: expected capturing state, got %s", mode, ts.State())
		}
	}
}

func TestSessionRejectsOversizedUpload(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	if err := ts.SelectMode(SourceModeUpload); err != nil {
		t.Fatal(err)
	}

	data := pngBytes(t, 10, 10)
	err := ts.UploadSignature(&UploadedFile{Name: "huge.png", ContentType: "image/png", Size: 6 * 1024 * 1024, Data: data})

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != ErrMsgFileTooLarge {
		t.Fatalf("expected %q validation error, got %v", ErrMsgFileTooLarge, err)
	}
	if ts.Artifact() != nil {
		t.Error("expected artifact to remain unset")
	}
	if ts.LastError() == nil {
		t.Error("expected the rejection to be surfaced inline")
	}
}

func TestSessionDrawStrokeOutsideDrawMode(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	if err := ts.SelectMode(SourceModeText); err != nil {
		t.Fatal(err)
	}

	if err := ts.DrawStroke(Stroke{{X: 10, Y: 10}, {X: 80, Y: 40}}); err == nil {
		t.Fatal("expected DrawStroke in text mode to fail")
	}
	if ts.LastError() == nil {
		t.Error("expected the failure to be surfaced inline")
	}
	if ts.Artifact() != nil || ts.State() != StateCapturing {
		t.Errorf("expected no artifact and capturing state, got %v %s", ts.Artifact(), ts.State())
	}
}

func TestSessionTypedSignature(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	if err := ts.SelectMode(SourceModeText); err != nil {
		t.Fatal(err)
	}

	if err := ts.TypeSignature("Jane Doe"); err != nil {
		t.Fatalf("TypeSignature() error = %v", err)
	}
	artifact := ts.Artifact()
	if artifact == nil || artifact.SourceMode != SourceModeText {
		t.Fatalf("expected a text artifact, got %+v", artifact)
	}
	if !ts.CanSubmit() {
		t.Error("expected submit to be enabled")
	}

	if err := ts.TypeSignature(""); err != nil {
		t.Fatal(err)
	}
	if ts.Artifact() != nil {
		t.Error("expected clearing the text to clear the artifact")
	}
	if ts.CanSubmit() {
		t.Error("expected submit to be disabled")
	}
}

func TestSessionMarkReviewedLeavesSignature(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	drawSignature(t, ts.Session)
	before := ts.Artifact()

	if err := ts.MarkReviewed(context.Background()); err != nil {
		t.Fatalf("MarkReviewed() error = %v", err)
	}
	if ts.Artifact() != before || ts.State() != StateReady {
		t.Error("expected signature state to be untouched")
	}
	if _, status, _ := ts.store.counts(); status != 1 {
		t.Errorf("expected one status update, got %d", status)
	}
}

func TestSessionRequiresToken(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	drawSignature(t, ts.Session)
	ts.auth.SetToken("")

	if err := ts.Apply(context.Background()); !IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if sign, _, _ := ts.store.counts(); sign != 0 {
		t.Errorf("expected no request without a token, got %d", sign)
	}
	if ts.loggedOut != 1 {
		t.Errorf("expected route to login, got %d logout(s)", ts.loggedOut)
	}
}

func TestSessionCloseReleasesResources(t *testing.T) {
	ts := newTestSession(t, Size{Width: 600, Height: 800})
	if err := ts.SelectMode(SourceModeUpload); err != nil {
		t.Fatal(err)
	}
	data := pngBytes(t, 10, 10)
	if err := ts.UploadSignature(&UploadedFile{Name: "sig.png", ContentType: "image/png", Size: int64(len(data)), Data: data}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ts.Download(&buf); err != nil || buf.Len() == 0 {
		t.Errorf("Download() error = %v, %d bytes", err, buf.Len())
	}

	ts.Close()
	if ts.Previews().Live() != 0 {
		t.Error("expected preview to be released on close")
	}
	if err := ts.Apply(context.Background()); err != nil {
		t.Errorf("expected Apply after close to be ignored, got %v", err)
	}
}
