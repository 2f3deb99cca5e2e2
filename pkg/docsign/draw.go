package docsign

import (
	"image"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"
)

/*
 * tdewolff/canvas works in mm; strokes are drawn with 1 mm == 1 px and rasterized at 1 dot per mm,
 * so canvas units equal capture pixels.
 */

const (
	DefaultStrokeCanvasWidth  = 280
	DefaultStrokeCanvasHeight = 120
	DefaultPenWidth           = 2.5
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke []Point

// StrokeCanvas accumulates freehand strokes and rasterizes them on demand.
type StrokeCanvas struct {
	width    int
	height   int
	penWidth float64
	penColor color.Color
	strokes  []Stroke
	current  Stroke
	drawing  bool
}

func NewStrokeCanvas(width, height int) *StrokeCanvas {
	if width <= 0 {
		width = DefaultStrokeCanvasWidth
	}
	if height <= 0 {
		height = DefaultStrokeCanvasHeight
	}

	return &StrokeCanvas{
		width:    width,
		height:   height,
		penWidth: DefaultPenWidth,
		penColor: color.Black,
	}
}

func (c *StrokeCanvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

func (c *StrokeCanvas) clampPoint(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, 0), float64(c.width)),
		Y: math.Min(math.Max(p.Y, 0), float64(c.height)),
	}
}

func (c *StrokeCanvas) BeginStroke(p Point) {
	c.drawing = true
	c.current = Stroke{c.clampPoint(p)}
}

func (c *StrokeCanvas) LineTo(p Point) {
	if !c.drawing {
		c.BeginStroke(p)
		return
	}
	c.current = append(c.current, c.clampPoint(p))
}

// EndStroke finishes the stroke in progress. A stroke without points is dropped.
func (c *StrokeCanvas) EndStroke() {
	if c.drawing && len(c.current) > 0 {
		c.strokes = append(c.strokes, c.current)
	}
	c.current = nil
	c.drawing = false
}

func (c *StrokeCanvas) AddStroke(s Stroke) {
	if len(s) == 0 {
		return
	}
	clamped := make(Stroke, len(s))
	for i, p := range s {
		clamped[i] = c.clampPoint(p)
	}
	c.strokes = append(c.strokes, clamped)
}

func (c *StrokeCanvas) IsEmpty() bool {
	return len(c.strokes) == 0
}

func (c *StrokeCanvas) Clear() {
	c.strokes = nil
	c.current = nil
	c.drawing = false
}

// Rasterize paints every committed stroke onto a transparent canvas with round caps and joins.
func (c *StrokeCanvas) Rasterize() *image.NRGBA {
	cv := canvas.New(float64(c.width), float64(c.height))
	ctx := canvas.NewContext(cv)
	// Change coordination from bottom-left to top-left
	ctx.SetCoordSystem(canvas.CartesianIV)
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(c.penColor)
	ctx.SetStrokeWidth(c.penWidth)
	ctx.SetStrokeCapper(canvas.RoundCap)
	ctx.SetStrokeJoiner(canvas.RoundJoin)

	for _, s := range c.strokes {
		if isDot(s) {
			// a zero-length path has no outline to stroke
			ctx.SetFillColor(c.penColor)
			ctx.SetStrokeColor(canvas.Transparent)
			ctx.DrawPath(s[0].X, s[0].Y, canvas.Circle(c.penWidth/2))
			ctx.SetFillColor(canvas.Transparent)
			ctx.SetStrokeColor(c.penColor)
			continue
		}

		ctx.MoveTo(s[0].X, s[0].Y)
		for _, p := range s[1:] {
			ctx.LineTo(p.X, p.Y)
		}
		ctx.Stroke()
	}

	rgba := rasterizer.Draw(cv, canvas.DPMM(1.0), canvas.DefaultColorSpace)

	dst := image.NewNRGBA(c.Bounds())
	xdraw.Draw(dst, dst.Bounds(), rgba, rgba.Bounds().Min, xdraw.Src)
	return dst
}

func isDot(s Stroke) bool {
	for _, p := range s[1:] {
		if p != s[0] {
			return false
		}
	}
	return true
}
