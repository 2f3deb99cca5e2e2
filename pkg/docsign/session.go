package docsign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mattetti/filebuffer"
	"go.uber.org/zap"
)

type SessionState int

const (
	StateIdle SessionState = iota
	StateCapturing
	StateReady
	StateSubmitting
	StateLoggedOut
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateLoggedOut:
		return "logged out"
	default:
		return "unknown"
	}
}

type SessionOptions struct {
	Input   InputOptions
	Surface SurfaceOptions
	Logger  *zap.SugaredLogger
}

// Session is one user signing one document: capture, position, apply.
type Session struct {
	documentID string
	store      DocumentStore
	auth       *AuthContext
	logger     *zap.SugaredLogger

	input   *InputManager
	surface *RenderSurface
	overlay *Overlay

	mu             sync.Mutex
	state          SessionState
	submitting     bool
	updatingStatus bool
	document       *Document
	pdf            []byte
	lastError      error
	closed         bool
}

func NewSession(documentID string, store DocumentStore, auth *AuthContext, renderer Renderer, viewport Viewport, opts SessionOptions) (*Session, error) {
	if documentID == "" {
		return nil, errors.New("no document id provided")
	}
	if auth == nil {
		auth = NewAuthContext("")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Input.Logger == nil {
		opts.Input.Logger = logger
	}
	if opts.Surface.Logger == nil {
		opts.Surface.Logger = logger
	}

	input, err := NewInputManager(opts.Input)
	if err != nil {
		return nil, err
	}

	surface := NewRenderSurface(renderer, viewport, opts.Surface)
	overlay := NewOverlay(func() Size { return surface.State().Size() })
	surface.OnMeasure(func(st PageRenderState) { overlay.Reclamp(st.Size()) })

	return &Session{
		documentID: documentID,
		store:      store,
		auth:       auth,
		logger:     logger,
		input:      input,
		surface:    surface,
		overlay:    overlay,
		state:      StateIdle,
	}, nil
}

func (s *Session) DocumentID() string {
	return s.documentID
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError is the inline error of the last failed action, nil after a successful one.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

func (s *Session) Artifact() *SignatureArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input.Artifact()
}

func (s *Session) Mode() SourceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input.Mode()
}

func (s *Session) Overlay() *Overlay {
	return s.overlay
}

func (s *Session) Surface() *RenderSurface {
	return s.surface
}

func (s *Session) Previews() *PreviewStore {
	return s.input.Previews()
}

// Open fetches the document metadata and bytes and loads the render surface.
func (s *Session) Open(ctx context.Context) error {
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}

	doc, err := s.store.GetDocument(ctx, s.documentID)
	if err != nil {
		return s.fail(fmt.Errorf("failed to load document: %w", err), false)
	}

	data, err := s.store.ViewDocument(ctx, s.documentID)
	if err != nil {
		return s.fail(fmt.Errorf("failed to load document: %w", err), false)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.document = doc
	s.pdf = data
	s.mu.Unlock()

	if err := s.surface.Load(filebuffer.New(data)); err != nil {
		return s.fail(err, false)
	}
	return nil
}

func (s *Session) requireAuth() error {
	if s.auth.Authenticated() {
		return nil
	}
	return s.fail(&AuthError{Message: "authentication token not found, please log in again"}, false)
}

// fail records err as the inline error. Only an AuthError discards the captured signature and
// ends the session.
func (s *Session) fail(err error, fromSubmit bool) error {
	logout := IsAuthError(err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	s.lastError = err
	switch {
	case logout:
		s.input.Clear()
		s.overlay.Reset()
		s.state = StateLoggedOut
	case fromSubmit && s.input.Artifact() != nil:
		s.state = StateReady
	case fromSubmit:
		s.state = StateCapturing
	}
	s.mu.Unlock()

	if logout {
		s.logger.Infof("Session for document %s ended: %v", s.documentID, err)
		s.auth.Clear()
	} else {
		s.logger.Warnf("Signing action failed for document %s: %v", s.documentID, err)
	}
	return err
}

// SelectMode switches the input variant; the previous artifact and preview are dropped and the
// overlay returns to its default position.
func (s *Session) SelectMode(mode SourceMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.input.SelectMode(mode); err != nil {
		return err
	}
	s.overlay.Reset()
	s.lastError = nil
	if s.state != StateSubmitting && s.state != StateLoggedOut {
		s.state = StateCapturing
	}
	return nil
}

// afterCaptureLocked moves between Capturing and Ready. A newly appearing artifact starts at the
// default overlay position.
func (s *Session) afterCaptureLocked(hadArtifact bool) {
	has := s.input.Artifact() != nil
	if has && !hadArtifact {
		s.overlay.Reset()
	}
	if s.state == StateSubmitting || s.state == StateLoggedOut {
		return
	}
	if has {
		s.state = StateReady
	} else {
		s.state = StateCapturing
	}
}

func (s *Session) BeginStroke(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.input.BeginStroke(p); err != nil {
		s.lastError = err
		return err
	}
	return nil
}

func (s *Session) LineTo(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.input.LineTo(p); err != nil {
		s.lastError = err
		return err
	}
	return nil
}

func (s *Session) EndStroke() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.input.Artifact() != nil
	if err := s.input.EndStroke(); err != nil {
		s.lastError = err
		return err
	}
	s.afterCaptureLocked(had)
	return nil
}

// DrawStroke feeds one complete stroke, as a pointer-down, moves, pointer-up sequence.
func (s *Session) DrawStroke(stroke Stroke) error {
	if len(stroke) == 0 {
		return s.EndStroke()
	}
	if err := s.BeginStroke(stroke[0]); err != nil {
		return err
	}
	for _, p := range stroke[1:] {
		if err := s.LineTo(p); err != nil {
			return err
		}
	}
	return s.EndStroke()
}

func (s *Session) UploadSignature(file *UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.input.Artifact() != nil
	if err := s.input.Upload(file); err != nil {
		s.lastError = err
		return err
	}
	s.lastError = nil
	s.afterCaptureLocked(had)
	return nil
}

func (s *Session) TypeSignature(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.input.Artifact() != nil
	if err := s.input.SetText(text); err != nil {
		s.lastError = err
		return err
	}
	s.afterCaptureLocked(had)
	return nil
}

func (s *Session) ClearSignature() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input.Clear()
	s.overlay.Reset()
	s.afterCaptureLocked(false)
}

// MoveSignature drags the artifact to p.
func (s *Session) MoveSignature(p Position) Position {
	return s.overlay.MoveTo(p)
}

// CanSubmit reports whether "apply signature" is enabled.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && !s.submitting && s.state == StateReady && s.input.Artifact() != nil
}

func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Apply places the current signature. The page size is read from the live surface right now,
// never from an earlier measurement. Calling Apply while a submission is in flight does nothing.
func (s *Session) Apply(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.submitting {
		s.mu.Unlock()
		return nil
	}
	artifact := s.input.Artifact()
	s.mu.Unlock()

	if artifact == nil {
		err := NewValidationError(ErrMsgEmptySignature)
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		return err
	}
	if err := s.requireAuth(); err != nil {
		return err
	}

	size := s.surface.CurrentSize()
	req, err := BuildPlacementRequest(s.documentID, s.surface.Page(), artifact, s.overlay.PositionWithin(size), size)
	if err != nil {
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.closed || s.submitting {
		s.mu.Unlock()
		return nil
	}
	s.submitting = true
	s.state = StateSubmitting
	s.lastError = nil
	s.mu.Unlock()

	s.logger.Debugf("Applying %s signature to document %s page %d at (%.1f, %.1f) within %.0fx%.0f",
		req.SignatureType, req.DocumentID, req.PageNumber, req.SignaturePosition.X, req.SignaturePosition.Y,
		req.PDFPageDimensions.Width, req.PDFPageDimensions.Height)

	doc, err := s.store.SignDocument(ctx, req)

	s.mu.Lock()
	s.submitting = false
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return s.fail(fmt.Errorf("failed to apply signature: %w", err), true)
	}

	s.input.Clear()
	s.overlay.Reset()
	s.state = StateIdle
	if doc != nil {
		s.document = doc
	}
	s.mu.Unlock()

	s.logger.Infof("Signature applied to document %s", s.documentID)
	return s.refresh(ctx)
}

// MarkReviewed sets the document status to reviewed. It leaves the signature untouched.
func (s *Session) MarkReviewed(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.updatingStatus {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.requireAuth(); err != nil {
		return err
	}

	s.mu.Lock()
	s.updatingStatus = true
	s.mu.Unlock()

	doc, err := s.store.UpdateStatus(ctx, s.documentID, DocumentStatusReviewed)

	s.mu.Lock()
	s.updatingStatus = false
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err != nil {
		return s.fail(fmt.Errorf("failed to mark document as reviewed: %w", err), false)
	}

	s.mu.Lock()
	if doc != nil {
		s.document = doc
	}
	s.lastError = nil
	s.mu.Unlock()

	return s.refresh(ctx)
}

func (s *Session) DownloadFileName() string {
	return fmt.Sprintf("signed_document_%s.pdf", s.documentID)
}

// Download writes the currently loaded document bytes to w.
func (s *Session) Download(w io.Writer) error {
	s.mu.Lock()
	data := s.pdf
	s.mu.Unlock()

	if len(data) == 0 {
		return errors.New("no document loaded to download")
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Close tears the session down. Responses arriving afterwards are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.input.Close()
	s.surface.Close()
}
