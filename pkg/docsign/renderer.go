package docsign

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/mattetti/filebuffer"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	xdraw "golang.org/x/image/draw"
)

// Renderer is the PDF rendering engine. Its internals are not part of this package.
type Renderer interface {
	Open(rs io.ReadSeeker) (RenderedDocument, error)
}

type RenderedDocument interface {
	PageCount() int
	// PageSize is the intrinsic page size in PDF points.
	PageSize(page int) (Size, error)
	// Rasterize draws page into a width x height pixel rectangle.
	Rasterize(page, width, height int) (image.Image, error)
}

// PdfcpuRenderer reads page geometry with pdfcpu and produces a blank proxy raster of the
// requested rectangle; enough for headless placement where nobody looks at the pixels.
type PdfcpuRenderer struct {
	conf *model.Configuration
}

func NewPdfcpuRenderer() *PdfcpuRenderer {
	return &PdfcpuRenderer{conf: model.NewDefaultConfiguration()}
}

func (r *PdfcpuRenderer) Open(rs io.ReadSeeker) (RenderedDocument, error) {
	dims, err := api.PageDims(rs, r.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	sizes := make([]Size, len(dims))
	for i, d := range dims {
		sizes[i] = Size{Width: d.Width, Height: d.Height}
	}
	return &pdfDocument{pages: sizes}, nil
}

// OpenBytes loads a document from an in-memory byte stream.
func OpenBytes(r Renderer, data []byte) (RenderedDocument, error) {
	return r.Open(filebuffer.New(data))
}

type pdfDocument struct {
	pages []Size
}

func (d *pdfDocument) PageCount() int {
	return len(d.pages)
}

func (d *pdfDocument) PageSize(page int) (Size, error) {
	if page < 1 || page > len(d.pages) {
		return Size{}, fmt.Errorf("page %d out of range [1, %d]", page, len(d.pages))
	}
	return d.pages[page-1], nil
}

func (d *pdfDocument) Rasterize(page, width, height int) (image.Image, error) {
	if _, err := d.PageSize(page); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	return img, nil
}
