package docsign

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Placement is a signature position in PDF user space (points), anchored top-left.
type Placement struct {
	Page    int
	OffsetX float64
	OffsetY float64
	// Applied to the signature image's pixel size.
	Scale float64
}

// ToPdfPlacement converts a placement made on a page rendered at req.PDFPageDimensions pixels into
// points on a page of size page. Each axis uses its own ratio so aspect drift in the viewer does
// not shift the signature vertically.
func ToPdfPlacement(req *PlacementRequest, page Size) (Placement, error) {
	if req == nil {
		return Placement{}, errors.New("placement request is nil")
	}
	if req.PDFPageDimensions.IsZero() {
		return Placement{}, &PlacementError{Message: errMsgNoPageDimensions}
	}
	if page.IsZero() {
		return Placement{}, &PlacementError{Message: "pdf page has no size"}
	}

	kx := page.Width / req.PDFPageDimensions.Width
	ky := page.Height / req.PDFPageDimensions.Height

	pageNumber := req.PageNumber
	if pageNumber < 1 {
		pageNumber = 1
	}

	return Placement{
		Page:    pageNumber,
		OffsetX: req.SignaturePosition.X * kx,
		OffsetY: req.SignaturePosition.Y * ky,
		Scale:   kx,
	}, nil
}

// WatermarkDescription renders p in pdfcpu's watermark description syntax.
func WatermarkDescription(p Placement) string {
	// In pdfcpu, y is inverted
	// pos: tl anchors at the top-left corner, same as the on-screen overlay.
	return fmt.Sprintf("pos: tl, off:%.2f %.2f, scale:%.4f abs, rotation:0", p.OffsetX, p.OffsetY*-1, p.Scale)
}

// PdfPageSize returns the size in points of a 1-based page.
func PdfPageSize(rs io.ReadSeeker, page int) (Size, error) {
	dims, err := api.PageDims(rs, model.NewDefaultConfiguration())
	if err != nil {
		return Size{}, fmt.Errorf("failed to read pdf page dimensions: %w", err)
	}
	if page < 1 || page > len(dims) {
		return Size{}, fmt.Errorf("page %d out of range [1, %d]", page, len(dims))
	}
	return Size{Width: dims[page-1].Width, Height: dims[page-1].Height}, nil
}

// ApplySignatureToPdf stamps signatureFile onto the placement page of inFile and writes outFile.
func ApplySignatureToPdf(inFile, outFile, signatureFile string, p Placement) error {
	ext := strings.ToLower(filepath.Ext(signatureFile))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		return fmt.Errorf("unsupported signature file type: %s", ext)
	}

	selectedPages := []string{fmt.Sprintf("%d", p.Page)}
	onTop := true
	if err := api.AddImageWatermarksFile(inFile, outFile, selectedPages, onTop, signatureFile, WatermarkDescription(p), nil); err != nil {
		return fmt.Errorf("failed to apply signature to page %d: %w", p.Page, err)
	}
	return nil
}

// WriteSignatureImage decodes a signature data URL into dir. Formats pdfcpu cannot stamp are
// converted to PNG.
func WriteSignatureImage(dir, signatureData, fileExtension string) (string, error) {
	mimeType, data, err := DecodeDataURL(signatureData)
	if err != nil {
		return "", fmt.Errorf("invalid signature data: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(fileExtension, "."))
	if ext == "" {
		ext = strings.TrimPrefix(mimeType, "image/")
	}

	switch ext {
	case "png", "jpg", "jpeg":
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("failed to decode %s signature image: %w", ext, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("failed to convert signature image to png: %w", err)
		}
		data, ext = buf.Bytes(), "png"
	}

	f, err := os.CreateTemp(dir, "docsign_signature_*."+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create signature file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write signature file: %w", err)
	}
	return f.Name(), nil
}
