package docsign

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	TextSignatureFontSize = 48.0
	TextSignaturePadding  = 10.0
	// line box height relative to the font size
	textLineHeightRatio = 1.2
	// 1 px == 1 pt
	textDPI = 72
)

type TextBaseline int

const (
	TextBaselineTop TextBaseline = iota
	TextBaselineAlphabetic
)

type paintState struct {
	fill     color.Color
	baseline TextBaseline
}

func defaultPaintState() paintState {
	return paintState{fill: color.Black, baseline: TextBaselineAlphabetic}
}

// rasterSurface is an offscreen bitmap. Resizing it drops the previous paint state.
type rasterSurface struct {
	img   *image.NRGBA
	paint paintState
}

func (s *rasterSurface) size() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *rasterSurface) resize(width, height int) {
	s.img = image.NewNRGBA(image.Rect(0, 0, width, height))
	s.paint = defaultPaintState()
}

func (s *rasterSurface) clear() {
	clear(s.img.Pix)
}

// TextRenderer turns typed text into a tightly cropped signature image.
type TextRenderer struct {
	face     font.Face
	fontSize float64
	padding  float64
	surface  rasterSurface
}

func NewTextRenderer() (*TextRenderer, error) {
	f, err := opentype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signature font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    TextSignatureFontSize,
		DPI:     textDPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create signature font face: %w", err)
	}

	return &TextRenderer{
		face:     face,
		fontSize: TextSignatureFontSize,
		padding:  TextSignaturePadding,
	}, nil
}

// Measure returns the raster size needed for text: advance width and line height plus padding.
func (tr *TextRenderer) Measure(text string) (int, int) {
	advance := fixedToFloat(font.MeasureString(tr.face, text))
	width := int(math.Ceil(advance + tr.padding*2))
	height := int(math.Ceil(tr.fontSize*textLineHeightRatio + tr.padding*2))
	return width, height
}

// Render rasterizes text. Empty text yields a nil image.
func (tr *TextRenderer) Render(text string) *image.NRGBA {
	if text == "" {
		return nil
	}

	width, height := tr.Measure(text)
	if w, h := tr.surface.size(); w != width || h != height {
		tr.surface.resize(width, height)
	} else {
		tr.surface.clear()
	}

	tr.surface.paint = paintState{fill: color.Black, baseline: TextBaselineTop}
	tr.drawText(text)

	out := image.NewNRGBA(tr.surface.img.Bounds())
	copy(out.Pix, tr.surface.img.Pix)
	return out
}

func (tr *TextRenderer) drawText(text string) {
	paint := tr.surface.paint

	// left aligned, the raster is sized to the text
	x := fixed.I(int(tr.padding))
	y := fixed.I(int(tr.padding))
	if paint.baseline == TextBaselineTop {
		y += tr.face.Metrics().Ascent
	}

	d := &font.Drawer{
		Dst:  tr.surface.img,
		Src:  image.NewUniform(paint.fill),
		Face: tr.face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
