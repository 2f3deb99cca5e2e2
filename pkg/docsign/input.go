package docsign

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
)

// InputManager produces the single active SignatureArtifact from one of the three input modes.
// It is not safe for concurrent use; Session serializes access.
type InputManager struct {
	logger   *zap.SugaredLogger
	mode     SourceMode
	artifact *SignatureArtifact

	strokes  *StrokeCanvas
	text     string
	textR    *TextRenderer
	previews *PreviewStore
	preview  *Preview

	lastError error
}

type InputOptions struct {
	StrokeCanvasWidth  int
	StrokeCanvasHeight int
	PreviewDir         string
	Logger             *zap.SugaredLogger
}

func NewInputManager(opts InputOptions) (*InputManager, error) {
	textR, err := NewTextRenderer()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &InputManager{
		logger:   logger,
		mode:     SourceModeDraw,
		strokes:  NewStrokeCanvas(opts.StrokeCanvasWidth, opts.StrokeCanvasHeight),
		textR:    textR,
		previews: NewPreviewStore(opts.PreviewDir),
	}, nil
}

func (im *InputManager) Mode() SourceMode {
	return im.mode
}

func (im *InputManager) Artifact() *SignatureArtifact {
	return im.artifact
}

func (im *InputManager) Text() string {
	return im.text
}

func (im *InputManager) Previews() *PreviewStore {
	return im.previews
}

func (im *InputManager) LastError() error {
	return im.lastError
}

// SelectMode switches the input variant and drops everything captured by the previous one.
func (im *InputManager) SelectMode(mode SourceMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid signature mode %q", mode)
	}
	im.Clear()
	im.mode = mode
	return nil
}

// Clear drops the artifact, the stroke surface, the typed text and any preview.
func (im *InputManager) Clear() {
	im.strokes.Clear()
	im.text = ""
	im.artifact = nil
	im.lastError = nil
	im.releasePreview()
}

func (im *InputManager) releasePreview() {
	if im.preview == nil {
		return
	}
	if err := im.preview.Release(); err != nil {
		im.logger.Errorf("Failed to release signature preview: %v", err)
	}
	im.preview = nil
}

func (im *InputManager) requireMode(mode SourceMode) error {
	if im.mode != mode {
		return fmt.Errorf("signature mode is %s, not %s", im.mode, mode)
	}
	return nil
}

func (im *InputManager) StrokeCanvas() *StrokeCanvas {
	return im.strokes
}

// BeginStroke starts a stroke on the drawing surface. Outside draw mode the surface is untouched.
func (im *InputManager) BeginStroke(p Point) error {
	if err := im.requireMode(SourceModeDraw); err != nil {
		return err
	}
	im.strokes.BeginStroke(p)
	return nil
}

func (im *InputManager) LineTo(p Point) error {
	if err := im.requireMode(SourceModeDraw); err != nil {
		return err
	}
	im.strokes.LineTo(p)
	return nil
}

// EndStroke rasterizes the drawing surface. An empty surface leaves no artifact.
func (im *InputManager) EndStroke() error {
	if err := im.requireMode(SourceModeDraw); err != nil {
		return err
	}

	im.strokes.EndStroke()
	if im.strokes.IsEmpty() {
		im.artifact = nil
		return nil
	}

	artifact, err := newPNGArtifact(im.strokes.Rasterize(), SourceModeDraw)
	if err != nil {
		return err
	}
	im.artifact = artifact
	return nil
}

// Upload validates file and makes it the artifact. On failure only the error changes.
func (im *InputManager) Upload(file *UploadedFile) error {
	if err := im.requireMode(SourceModeUpload); err != nil {
		return err
	}
	if file == nil {
		im.lastError = NewValidationError(ErrMsgUnsupportedFileType)
		return im.lastError
	}

	if err := file.Validate(); err != nil {
		im.lastError = err
		return err
	}

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	// The old preview goes before the new one is created.
	im.releasePreview()
	preview, err := im.previews.Acquire(file.Name, file.Data)
	if err != nil {
		im.artifact = nil
		im.lastError = err
		return err
	}
	im.preview = preview

	im.artifact = &SignatureArtifact{
		ImageData:     EncodeDataURL(file.mimeType(), file.Data),
		SourceMode:    SourceModeUpload,
		FileExtension: file.Extension(),
		DisplaySource: preview.Path(),
		Width:         width,
		Height:        height,
	}
	im.lastError = nil

	im.logger.Debugf("Accepted signature upload %s (%d bytes)", file.Name, file.Size)
	return nil
}

// SetText re-renders the typed signature. Empty text clears the artifact.
func (im *InputManager) SetText(text string) error {
	if err := im.requireMode(SourceModeText); err != nil {
		return err
	}

	im.text = text
	img := im.textR.Render(text)
	if img == nil {
		im.artifact = nil
		return nil
	}

	artifact, err := newPNGArtifact(img, SourceModeText)
	if err != nil {
		return err
	}
	im.artifact = artifact
	return nil
}

// Close releases the last live preview.
func (im *InputManager) Close() {
	im.releasePreview()
}
